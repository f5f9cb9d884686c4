package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"post-call-insights-go/internal/schema"
)

var (
	separatorRun  = regexp.MustCompile(`[\s\-.]+`)
	underscoreRun = regexp.MustCompile(`_+`)
)

// minContainmentLen is the normalized length both sides must exceed before
// substring containment counts as a match.
const minContainmentLen = 3

// NormalizeTag canonicalizes a tag for comparison: lowercase, trimmed,
// whitespace/hyphen/period runs turned into one underscore, repeated
// underscores collapsed, outer underscores stripped. It is idempotent.
func NormalizeTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = separatorRun.ReplaceAllString(s, "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// MatchOption maps a model-returned string onto a canonical option value.
// Exact normalized equality wins over every option; otherwise the first
// option (schema order) whose normalized form contains, or is contained in,
// the normalized input is used, provided both are longer than
// minContainmentLen characters.
func MatchOption(raw string, options []schema.Option) (string, bool) {
	n := NormalizeTag(raw)
	if n == "" {
		return "", false
	}
	normalized := make([]string, len(options))
	for i, o := range options {
		normalized[i] = NormalizeTag(o.FieldKey)
		if normalized[i] == n {
			return o.FieldKey, true
		}
	}
	if utf8.RuneCountInString(n) <= minContainmentLen {
		return "", false
	}
	for i, o := range options {
		on := normalized[i]
		if utf8.RuneCountInString(on) <= minContainmentLen {
			continue
		}
		if strings.Contains(n, on) || strings.Contains(on, n) {
			return o.FieldKey, true
		}
	}
	return "", false
}
