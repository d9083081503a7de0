package domain

import "time"

// Sentiment labels assigned by enrichment.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// CategoryOther is the fallback category when no keywords match.
const CategoryOther = "other"

// RawPost is a post as delivered by a source, before enrichment.
type RawPost struct {
	ID        string
	Platform  string
	Content   string
	Timestamp time.Time
	Location  *string
}

// Post is an enriched, stored post. Immutable once inserted.
type Post struct {
	ID        string    `db:"id" json:"id"`
	Platform  string    `db:"platform" json:"platform"`
	Content   string    `db:"content" json:"content"`
	Timestamp time.Time `db:"ts" json:"timestamp"`
	Location  *string   `db:"location" json:"location,omitempty"`
	Latitude  *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64  `db:"longitude" json:"longitude,omitempty"`
	Sentiment string    `db:"sentiment" json:"sentiment"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// PostFilter narrows Query to exact matches on the closed filter set.
// Nil fields are ignored.
type PostFilter struct {
	Platform  *string
	Category  *string
	Sentiment *string
}
