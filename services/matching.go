package services

import (
	"math"
	"regexp"
	"strings"

	"composer/types"

	"golang.org/x/text/cases"
)

// Scoring weights for matching a lyrics result against a track
const (
	titleWeight    = 0.4
	artistWeight   = 0.4
	albumWeight    = 0.1
	durationWeight = 0.1

	// Durations within this many seconds count as a perfect match
	durationExactWindow = 5
	// Durations within this window earn half the duration weight
	durationCloseWindow = 30
)

var punctuationRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// StringSimilarity compares two strings: 1.0 when equal after removing
// punctuation, 0.8 when one contains the other, otherwise the Jaccard index
// of their words.
func StringSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	a = strings.TrimSpace(punctuationRe.ReplaceAllString(a, ""))
	b = strings.TrimSpace(punctuationRe.ReplaceAllString(b, ""))

	if a == b {
		return 1
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	words1 := wordSet(a)
	words2 := wordSet(b)
	if len(words1) == 0 || len(words2) == 0 {
		return 0
	}

	intersection := 0
	for w := range words1 {
		if words2[w] {
			intersection++
		}
	}
	union := len(words1) + len(words2) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

// ScoreResult computes and stores the accuracy score of r for the query
func ScoreResult(r *types.LyricsResult, q types.LyricsQuery) float64 {
	fold := cases.Fold()
	score := 0.0

	score += StringSimilarity(fold.String(r.Title), fold.String(q.Title)) * titleWeight
	score += StringSimilarity(fold.String(r.Artist), fold.String(q.Artist)) * artistWeight

	if q.Album != "" {
		score += StringSimilarity(fold.String(r.Album), fold.String(q.Album)) * albumWeight
	} else {
		// unknown album is not penalised
		score += albumWeight
	}

	if q.Duration > 0 && r.Duration > 0 {
		diff := math.Abs(r.Duration - q.Duration)
		if diff <= durationExactWindow {
			score += durationWeight
		} else if diff <= durationCloseWindow {
			score += durationWeight / 2
		}
	} else {
		score += durationWeight / 2
	}

	r.AccuracyScore = score
	return score
}
