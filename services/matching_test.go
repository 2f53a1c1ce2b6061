package services

import (
	"testing"

	"composer/types"

	"github.com/stretchr/testify/assert"
)

func TestStringSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"identical", "Yellow", "Yellow", 1.0},
		{"punctuation ignored", "Hello, World!", "Hello World", 1.0},
		{"containment", "Yellow (Remastered)", "Yellow", 0.8},
		{"jaccard", "the quick fox", "the slow fox", 0.5},
		{"disjoint", "abc", "xyz", 0},
		{"empty left", "", "Yellow", 0},
		{"empty right", "Yellow", "", 0},
		{"unicode letters kept", "夜に駆ける", "夜に駆ける", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, StringSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScoreResult(t *testing.T) {
	query := types.LyricsQuery{Title: "Yellow", Artist: "Coldplay", Album: "Parachutes", Duration: 269}

	tests := []struct {
		name     string
		result   types.LyricsResult
		query    types.LyricsQuery
		expected float64
	}{
		{
			name:     "perfect match",
			result:   types.LyricsResult{Title: "Yellow", Artist: "Coldplay", Album: "Parachutes", Duration: 266},
			query:    query,
			expected: 1.0,
		},
		{
			name:     "case folded",
			result:   types.LyricsResult{Title: "YELLOW", Artist: "coldplay", Album: "parachutes", Duration: 269},
			query:    query,
			expected: 1.0,
		},
		{
			name:     "duration within thirty seconds",
			result:   types.LyricsResult{Title: "Yellow", Artist: "Coldplay", Album: "Parachutes", Duration: 289},
			query:    query,
			expected: 0.95,
		},
		{
			name:     "duration far off",
			result:   types.LyricsResult{Title: "Yellow", Artist: "Coldplay", Album: "Parachutes", Duration: 400},
			query:    query,
			expected: 0.9,
		},
		{
			name:     "unknown album and duration",
			result:   types.LyricsResult{Title: "Yellow", Artist: "Coldplay"},
			query:    types.LyricsQuery{Title: "Yellow", Artist: "Coldplay"},
			expected: 0.95,
		},
		{
			name:     "wrong artist",
			result:   types.LyricsResult{Title: "Yellow", Artist: "Someone Else", Album: "Parachutes", Duration: 269},
			query:    query,
			expected: 0.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.result
			score := ScoreResult(&r, tt.query)
			assert.InDelta(t, tt.expected, score, 1e-9)
			assert.InDelta(t, score, r.AccuracyScore, 1e-9)
		})
	}
}
