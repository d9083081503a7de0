package twitter

// SearchResponse represents the recent-search API response structure.
type SearchResponse struct {
	Data []Tweet `json:"data"`
	Meta Meta    `json:"meta"`
}

type Tweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	Geo       *Geo   `json:"geo"`
}

type Geo struct {
	PlaceID string `json:"place_id"`
}

type Meta struct {
	NewestID    string `json:"newest_id"`
	ResultCount int    `json:"result_count"`
}
