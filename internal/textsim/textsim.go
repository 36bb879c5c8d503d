// Package textsim provides the text normalization and edit-distance
// similarity used to grade free text and code answers.
package textsim

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Normalize applies NFKC and case folding, trims the ends and collapses
// whitespace runs to a single space. Punctuation is kept: a sign or a
// decimal point changes the answer.
func Normalize(s string) string {
	s = folder.String(norm.NFKC.String(s))
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, r)
		}
	}
	return string(out)
}

// NormalizeCode trims every line and drops blank ones. Case and punctuation
// are significant in code and are left alone.
func NormalizeCode(src string) []string {
	src = norm.NFKC.String(strings.ReplaceAll(src, "\r\n", "\n"))
	var lines []string
	for _, l := range strings.Split(src, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Ratio returns 1 - distance/maxLen over runes, in [0,1]. Two empty
// strings are identical.
func Ratio(a, b string) float64 {
	n, m := len([]rune(a)), len([]rune(b))
	longest := max(n, m)
	if longest == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// Levenshtein computes edit distance with unit insertion, deletion and
// substitution costs.
func Levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n, m := len(ar), len(br)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	dp := make([]int, m+1)
	for j := 0; j <= m; j++ {
		dp[j] = j
	}
	for i := 1; i <= n; i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= m; j++ {
			tmp := dp[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			dp[j] = min(dp[j]+1, dp[j-1]+1, prev+cost)
			prev = tmp
		}
	}
	return dp[m]
}
