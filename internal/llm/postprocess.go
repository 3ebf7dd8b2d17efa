package llm

import (
	"regexp"
	"strings"
)

var (
	// trailingZeroRe matches a single trailing decimal zero like 12.0.
	// Exactly one zero: runs of zeros are thousands groupings in
	// es-CO formatting (5.000.000) and must survive untouched.
	trailingZeroRe = regexp.MustCompile(`\b(\d+)\.0\b`)
	// bulletRe normalizes the bullet characters models like to mix.
	bulletRe = regexp.MustCompile(`(?m)^[ \t]*[•*◦‣·][ \t]*`)
	// blankRunRe collapses runs of blank lines.
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// NormalizeAnswer cleans up common generation artifacts: whole numbers
// rendered with a decimal zero, mixed bullet markers, and runs of blank
// lines.
func NormalizeAnswer(text string) string {
	out := trailingZeroRe.ReplaceAllString(text, "$1")
	out = bulletRe.ReplaceAllString(out, "- ")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
