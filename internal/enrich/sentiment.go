package enrich

import (
	"strings"

	"citypulse/internal/domain"
)

// KeywordSentiment is the rule-based sentiment classifier: it counts
// positive and negative phrase occurrences and picks the majority side.
type KeywordSentiment struct {
	positive []string
	negative []string
}

func NewKeywordSentiment() *KeywordSentiment {
	return &KeywordSentiment{
		positive: []string{
			"good", "great", "excellent", "amazing", "wonderful", "fantastic",
			"love", "happy", "thank", "thanks", "improved", "better", "best",
			"fixed", "resolved", "solution", "solve", "solved",
		},
		negative: []string{
			"bad", "terrible", "horrible", "awful", "poor", "worst",
			"hate", "issue", "problem", "broken", "damage", "damaged",
			"not working", "doesn't work", "fail", "failed", "failure",
			"complaint", "complain", "disappointed", "disappointing",
		},
	}
}

func (c *KeywordSentiment) Classify(text string) string {
	text = strings.ToLower(text)

	var positive, negative int
	for _, phrase := range c.positive {
		if strings.Contains(text, phrase) {
			positive++
		}
	}
	for _, phrase := range c.negative {
		if strings.Contains(text, phrase) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return domain.SentimentPositive
	case negative > positive:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}
