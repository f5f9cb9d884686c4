package extractor

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"post-call-insights-go/internal/schema"
	"post-call-insights-go/internal/types"
)

// minTextLen is the minimum trimmed length of an accepted free-text answer.
const minTextLen = 5

var (
	truthy = map[string]bool{"true": true, "oui": true, "yes": true, "vrai": true, "1": true, "y": true, "o": true}
	falsy  = map[string]bool{"false": true, "non": true, "no": true, "faux": true, "0": true, "n": true}
)

// DefaultFor is the value used when an attribute cannot be extracted at all.
// It never returns null for a non-nullable question.
func DefaultFor(q schema.Question) types.Value {
	if !q.Default.IsNull() {
		return q.Default
	}
	if q.Shape == schema.MultiChoice && !q.Nullable {
		return types.List()
	}
	return types.Null()
}

// emptyFor is the value for an absent or explicitly null answer.
func emptyFor(q schema.Question) types.Value {
	if q.Nullable {
		return types.Null()
	}
	return DefaultFor(q)
}

func isNullLiteral(v types.Value) bool {
	if v.IsNull() {
		return true
	}
	s, ok := v.AsString()
	return ok && strings.EqualFold(strings.TrimSpace(s), "null")
}

// Normalize validates the raw answer for q. present is false when the
// model's object lacked the attribute key. Pure; never fails.
func Normalize(raw types.Value, present bool, q schema.Question) types.Value {
	if !present || isNullLiteral(raw) {
		return emptyFor(q)
	}
	switch q.Shape {
	case schema.SingleChoice:
		return normalizeSingle(raw, q)
	case schema.MultiChoice:
		return normalizeMulti(raw, q)
	case schema.FreeText:
		return normalizeText(raw, q, false)
	case schema.FreeTextMultiline:
		return normalizeText(raw, q, true)
	case schema.Boolean:
		return normalizeBool(raw, q)
	case schema.Number:
		return normalizeNumber(raw, q)
	}
	return DefaultFor(q)
}

func normalizeSingle(raw types.Value, q schema.Question) types.Value {
	s, ok := raw.AsString()
	if !ok {
		return DefaultFor(q)
	}
	if v, ok := MatchOption(s, q.Options); ok {
		return types.String(v)
	}
	return DefaultFor(q)
}

func normalizeMulti(raw types.Value, q schema.Question) types.Value {
	items, ok := raw.AsList()
	if !ok {
		return emptyFor(q)
	}
	seen := make(map[string]bool, len(items))
	matched := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.AsString()
		if !ok {
			continue
		}
		v, ok := MatchOption(s, q.Options)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		matched = append(matched, v)
	}
	if len(matched) == 0 {
		if q.Nullable {
			return types.Null()
		}
		return types.List()
	}
	return types.Strings(matched...)
}

// normalizeText accepts a string of at least minTextLen characters. The
// multiline shape also accepts a list of strings, one line per element.
func normalizeText(raw types.Value, q schema.Question, multiline bool) types.Value {
	s, ok := raw.AsString()
	if !ok && multiline {
		lines, isList := raw.StringList()
		if isList {
			var kept []string
			for _, l := range lines {
				if l = strings.TrimSpace(l); l != "" {
					kept = append(kept, l)
				}
			}
			s, ok = strings.Join(kept, "\n"), true
		}
	}
	if !ok {
		return emptyFor(q)
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < minTextLen {
		return emptyFor(q)
	}
	return types.String(s)
}

func normalizeBool(raw types.Value, q schema.Question) types.Value {
	if b, ok := raw.AsBool(); ok {
		return types.Bool(b)
	}
	if n, ok := raw.AsNumber(); ok && (n == 0 || n == 1) {
		return types.Bool(n == 1)
	}
	if s, ok := raw.AsString(); ok {
		key := strings.ToLower(strings.TrimSpace(s))
		switch {
		case truthy[key]:
			return types.Bool(true)
		case falsy[key]:
			return types.Bool(false)
		}
	}
	return DefaultFor(q)
}

// normalizeNumber accepts finite numbers only; ParseFloat also reads "NaN"
// and "Inf", which have no JSON form.
func normalizeNumber(raw types.Value, q schema.Question) types.Value {
	if n, ok := raw.AsNumber(); ok && finite(n) {
		return types.Number(n)
	}
	if s, ok := raw.AsString(); ok {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		if f, err := strconv.ParseFloat(s, 64); err == nil && finite(f) {
			return types.Number(f)
		}
	}
	return DefaultFor(q)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
