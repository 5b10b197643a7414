package evaluate

import (
	"unicode/utf8"

	"botprobe/lib/textutil"

	"github.com/antzucaro/matchr"
)

// ExactMatch compares two replies after normalizing case and whitespace.
func ExactMatch(predicted, expected string) bool {
	return textutil.Normalize(predicted) == textutil.Normalize(expected)
}

// Similarity is 1 minus the edit distance between a and b relative to the
// longer of the two, 1 means identical and two empty strings are identical.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	distance := matchr.Levenshtein(a, b)
	return float64(longest-distance) / float64(longest)
}
