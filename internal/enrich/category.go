package enrich

import (
	"regexp"
	"strings"

	"citypulse/internal/domain"
)

// Categories is the closed topical set; posts matching none fall into "other".
var Categories = []string{
	"infrastructure",
	"waste",
	"transportation",
	"water",
	"safety",
	"parks",
	"noise",
	"healthcare",
	"education",
	"government",
	domain.CategoryOther,
}

var categoryKeywords = map[string][]string{
	"infrastructure": {
		"road", "bridge", "building", "construction", "repair", "broken", "damaged",
		"infrastructure", "facility", "facilities", "street", "sidewalk", "footpath",
		"drainage", "sewage", "pipe", "water supply", "electricity", "power",
	},
	"waste": {
		"waste", "garbage", "trash", "rubbish", "bin", "collection", "dump", "dumping",
		"clean", "cleaning", "litter", "dispose", "disposal",
	},
	"transportation": {
		"bus", "train", "metro", "transport", "transportation", "traffic", "vehicle",
		"car", "auto", "rickshaw", "parking", "route", "commute", "travel",
	},
	"water": {
		"water", "drinking", "supply", "tap", "pipeline", "flood", "flooding",
		"rainwater", "drainage", "sewage", "river", "lake", "pond", "canal",
	},
	"safety": {
		"safety", "safe", "security", "police", "crime", "accident", "emergency",
		"danger", "dangerous", "unsafe", "light", "lighting", "streetlight",
	},
	"parks": {
		"park", "garden", "playground", "recreation", "tree", "plant", "green",
		"space", "public space", "play", "children", "bench", "seating",
	},
	"noise": {
		"noise", "loud", "sound", "disturbance", "quiet", "peace", "peaceful",
		"construction", "party", "music", "speaker", "horn", "honking",
	},
	"healthcare": {
		"hospital", "clinic", "doctor", "health", "medical", "medicine", "ambulance",
		"emergency", "patient", "treatment", "care", "disease", "infection",
	},
	"education": {
		"school", "college", "university", "education", "student", "teacher",
		"classroom", "learn", "learning", "study", "studying", "library", "book",
	},
	"government": {
		"government", "official", "authority", "mayor", "commissioner", "minister",
		"administration", "department", "municipal", "corporation", "council",
	},
}

// KeywordCategory classifies text into the category whose keywords match
// most often, counting whole-word matches only.
type KeywordCategory struct {
	patterns map[string][]*regexp.Regexp
}

func NewKeywordCategory() *KeywordCategory {
	patterns := make(map[string][]*regexp.Regexp, len(categoryKeywords))
	for category, keywords := range categoryKeywords {
		compiled := make([]*regexp.Regexp, 0, len(keywords))
		for _, keyword := range keywords {
			compiled = append(compiled, regexp.MustCompile(`\b`+regexp.QuoteMeta(keyword)+`\b`))
		}
		patterns[category] = compiled
	}
	return &KeywordCategory{patterns: patterns}
}

func (c *KeywordCategory) Classify(text string) string {
	text = strings.ToLower(text)

	best := domain.CategoryOther
	bestCount := 0
	for _, category := range Categories {
		if category == domain.CategoryOther {
			continue
		}
		count := 0
		for _, pattern := range c.patterns[category] {
			count += len(pattern.FindAllStringIndex(text, -1))
		}
		if count > bestCount {
			best = category
			bestCount = count
		}
	}
	return best
}
