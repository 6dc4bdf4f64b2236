package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Score rates how likely name refers to the same product as keyword, 0..100.
func Score(keyword, name string) int {
	k, n := normalizeName(keyword), normalizeName(name)
	if k == "" || n == "" {
		return 0
	}
	if k == n {
		return 100
	}

	kl, nl := utf8.RuneCountInString(k), utf8.RuneCountInString(n)
	longer, shorter := max(kl, nl), min(kl, nl)

	score := 100 * (longer - levenshtein.ComputeDistance(k, n)) / longer
	if strings.Contains(n, k) || strings.Contains(k, n) {
		score = max(score, 50+50*shorter/longer)
	}
	score = max(score, tokenOverlap(k, n))

	return min(max(score, 0), 99)
}

// normalizeName folds case and width and collapses whitespace.
func normalizeName(s string) string {
	s = folder.String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// tokenOverlap is the jaccard index of the word sets scaled to 0..90.
func tokenOverlap(a, b string) int {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) < 2 && len(tb) < 2 {
		return 0
	}
	set := make(map[string]struct{}, len(ta))
	for _, t := range ta {
		set[t] = struct{}{}
	}
	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(tb))
	for _, t := range tb {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return 90 * inter / union
}
