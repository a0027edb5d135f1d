package fuzzy

import (
	"slices"
	"strings"
	"unicode"
)

const (
	baseScore        = 100
	consecutiveBonus = 20
	boundaryBonus    = 15
	startBonus       = 25
	prefixBonus      = 50
	gapPenalty       = 2
)

// Result is one ranked item.
type Result[T any] struct {
	// Value is the matched item.
	Value T

	// Field is the text that produced the best score.
	Field string

	// Score is the match score; higher is better.
	Score int

	// Positions are the rune indices of matched characters in Field.
	Positions []int
}

// Score matches query against text. It reports false when some query rune
// is missing from text. An empty query matches everything with score 0.
func Score(query, text string) (int, []int, bool) {
	q := []rune(strings.ToLower(strings.TrimSpace(query)))
	if len(q) == 0 {
		return 0, nil, true
	}
	orig := []rune(text)
	lower := []rune(strings.ToLower(text))
	if len(lower) != len(orig) {
		// Case folding changed the rune count; fall back to raw runes.
		lower = orig
	}

	positions := make([]int, 0, len(q))
	qi := 0
	for i := 0; i < len(lower) && qi < len(q); i++ {
		if lower[i] == q[qi] {
			positions = append(positions, i)
			qi++
		}
	}
	if qi != len(q) {
		return 0, nil, false
	}
	return rank(q, orig, lower, positions), positions, true
}

func rank(q, orig, lower []rune, positions []int) int {
	score := baseScore
	for i, p := range positions {
		if i > 0 && p == positions[i-1]+1 {
			score += consecutiveBonus
		}
		if isBoundary(orig, p) {
			score += boundaryBonus
		}
	}
	if positions[0] == 0 {
		score += startBonus
	} else {
		score -= positions[0]
	}
	if gap := positions[len(positions)-1] - positions[0] - len(positions) + 1; gap > 0 {
		score -= gap * gapPenalty
	}
	if n := len(lower); n < 20 {
		score += 20 - n
	}
	if len(lower) >= len(q) && string(lower[:len(q)]) == string(q) {
		score += prefixBonus
	}
	return max(score, 1)
}

func isBoundary(runes []rune, i int) bool {
	if i == 0 {
		return true
	}
	prev, cur := runes[i-1], runes[i]
	switch prev {
	case '_', ':', '.', '-', ' ', '/':
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(cur)
}

// Filter ranks items by the best score of any of their fields. Items with
// no matching field are dropped. Ties keep input order. A limit of zero or
// less returns every match.
func Filter[T any](query string, items []T, fields func(T) []string, limit int) []Result[T] {
	results := make([]Result[T], 0, len(items))
	for _, item := range items {
		best := Result[T]{Value: item, Score: -1}
		for _, f := range fields(item) {
			score, pos, ok := Score(query, f)
			if ok && score > best.Score {
				best.Field, best.Score, best.Positions = f, score, pos
			}
		}
		if best.Score >= 0 {
			results = append(results, best)
		}
	}

	slices.SortStableFunc(results, func(a, b Result[T]) int {
		return b.Score - a.Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Highlight wraps the runes of text at positions with mark.
func Highlight(text string, positions []int, mark func(string) string) string {
	if len(positions) == 0 {
		return text
	}
	var b strings.Builder
	next := 0
	for i, r := range []rune(text) {
		if next < len(positions) && positions[next] == i {
			b.WriteString(mark(string(r)))
			next++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
