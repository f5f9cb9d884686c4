package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"post-call-insights-go/internal/types"
)

// ErrNoJSON is returned when model output holds no parsable JSON object.
var ErrNoJSON = errors.New("no JSON object in model output")

// ExtractJSONObject locates the JSON object a model wrapped in free-form
// text. The span from the first '{' to the last '}' is tried first; if it
// does not parse, the first balanced object is tried instead (prose after
// the object may contain a stray brace).
func ExtractJSONObject(text string) (map[string]types.Value, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, ErrNoJSON
	}
	obj, err := decodeObject(text[start : end+1])
	if err == nil {
		return obj, nil
	}
	if balanced := firstBalancedObject(text[start:]); balanced != "" && len(balanced) < end+1-start {
		if obj, berr := decodeObject(balanced); berr == nil {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrNoJSON, err)
}

func decodeObject(s string) (map[string]types.Value, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("null object")
	}
	return types.MapFromAny(m), nil
}

// firstBalancedObject returns the object starting at s[0] up to its matching
// closing brace, skipping braces inside string literals.
func firstBalancedObject(s string) string {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
