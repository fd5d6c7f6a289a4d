package namematch

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters NFD does not decompose into base + mark
var foldReplacer = strings.NewReplacer(
	"ø", "o", "Ø", "o",
	"æ", "ae", "Æ", "ae",
	"œ", "oe", "Œ", "oe",
	"ß", "ss",
	"ł", "l", "Ł", "l",
	"đ", "d", "Đ", "d",
	"þ", "th", "Þ", "th",
)

var (
	trailingParen = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	separators    = strings.NewReplacer(".", "", "-", "", "'", "", "’", "", "_", " ")
)

// Normalize folds a display name into its comparison form: lowercase ASCII
// letters, single spaces, "Last, First" reordered, trailing "(SWE)" style
// suffixes dropped and leading initials joined ("J. T. Poston" -> "jt poston").
func Normalize(name string) string {
	s := strings.TrimSpace(name)
	for trailingParen.MatchString(s) {
		s = trailingParen.ReplaceAllString(s, "")
	}

	if last, first, ok := strings.Cut(s, ","); ok {
		s = strings.TrimSpace(first) + " " + strings.TrimSpace(last)
	}

	s = foldReplacer.Replace(s)
	s = stripMarks(s)
	s = strings.ToLower(separators.Replace(s))

	return joinInitials(strings.Fields(s))
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// joinInitials merges a run of leading single-letter tokens into one token.
func joinInitials(tokens []string) string {
	if len(tokens) < 2 {
		return strings.Join(tokens, " ")
	}

	i := 0
	for i < len(tokens)-1 && len([]rune(tokens[i])) == 1 {
		i++
	}
	if i < 2 {
		return strings.Join(tokens, " ")
	}
	joined := strings.Join(tokens[:i], "")
	return strings.Join(append([]string{joined}, tokens[i:]...), " ")
}

// splitName splits a normalized name into its first token and the rest.
func splitName(normalized string) (first, rest string) {
	first, rest, _ = strings.Cut(normalized, " ")
	return first, rest
}
