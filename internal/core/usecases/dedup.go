package usecases

import (
	"math"
	"strings"
	"unicode"

	"github.com/samirrijal/spotfinder/internal/core/domain"
)

// MatchMode selects how aggressively duplicates are suppressed.
type MatchMode int

const (
	// MatchLoose treats names containing one another within LooseDegrees as
	// the same place. Used when merging text search results.
	MatchLoose MatchMode = iota
	// MatchStrict requires equal names within StrictDegrees. Used in discover mode.
	MatchStrict
)

func (m MatchMode) String() string {
	if m == MatchStrict {
		return "strict"
	}
	return "loose"
}

// Coordinate tolerances, in degrees on each axis. Roughly 500 m and 100 m.
var (
	LooseDegrees  = 0.005
	StrictDegrees = 0.001
)

// SuppressDuplicates returns the candidates that match no record in existing.
// Neither input slice is modified.
func SuppressDuplicates(candidates, existing []domain.Place, mode MatchMode) []domain.Place {
	out := make([]domain.Place, 0, len(candidates))
	for _, c := range candidates {
		if !matchesAny(c, existing, mode) {
			out = append(out, c)
		}
	}
	return out
}

func matchesAny(c domain.Place, existing []domain.Place, mode MatchMode) bool {
	for _, e := range existing {
		if samePlace(c, e, mode) {
			return true
		}
	}
	return false
}

func samePlace(a, b domain.Place, mode MatchMode) bool {
	tol := LooseDegrees
	if mode == MatchStrict {
		if !strings.EqualFold(a.Name, b.Name) {
			return false
		}
		tol = StrictDegrees
	} else {
		an, bn := foldName(a.Name), foldName(b.Name)
		// names made only of punctuation, or empty, compare raw
		if an == "" || bn == "" {
			an, bn = strings.ToLower(a.Name), strings.ToLower(b.Name)
		}
		if !strings.Contains(an, bn) && !strings.Contains(bn, an) {
			return false
		}
	}
	return math.Abs(a.Location.Lat-b.Location.Lat) < tol &&
		math.Abs(a.Location.Lon-b.Location.Lon) < tol
}

// foldName lowercases s and drops punctuation so "Joe's" and "Joes" compare
// equal. Runs of whitespace collapse to one space.
func foldName(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}
