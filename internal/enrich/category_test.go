package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"citypulse/internal/domain"
)

func TestKeywordCategoryClassify(t *testing.T) {
	classifier := NewKeywordCategory()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "waste keywords dominate",
			text: "Garbage collection skipped again, trash piling up near the market",
			want: "waste",
		},
		{
			name: "infrastructure",
			text: "The bridge repair has blocked the main road for a week",
			want: "infrastructure",
		},
		{
			name: "water over infrastructure on count",
			text: "No water in the tap since morning, the pipeline supply is down",
			want: "water",
		},
		{
			name: "whole word only, substring does not match",
			text: "The carpark opening was announced",
			want: domain.CategoryOther,
		},
		{
			name: "tie resolved by earlier category",
			text: "road trash",
			want: "infrastructure",
		},
		{
			name: "no keywords falls to other",
			text: "Lovely weather this weekend",
			want: domain.CategoryOther,
		},
		{
			name: "case insensitive",
			text: "TRAFFIC jam on the metro route",
			want: "transportation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Classify(tt.text))
		})
	}
}
