package extractor

import (
	"errors"
	"testing"

	"post-call-insights-go/internal/types"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		key  string
		want types.Value
	}{
		{"bare", `{"call_reason": "book_appointment"}`, "call_reason", types.String("book_appointment")},
		{"fenced", "```json\n{\"call_tags\": [\"nom\", \"email\"]}\n```", "call_tags", types.Strings("nom", "email")},
		{"prose around", `Voici la réponse : {"user_sentiment": null} Merci.`, "user_sentiment", types.Null()},
		{"number", `{"attente": 4.5}`, "attente", types.Number(4.5)},
		{"brace after object", `{"failure_description": "outil en panne"} note: }`, "failure_description", types.String("outil en panne")},
		{"brace inside string", `{"failure_description": "réponse {partielle}"}`, "failure_description", types.String("réponse {partielle}")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := ExtractJSONObject(tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, ok := obj[tt.key]
			if !ok {
				t.Fatalf("key %s missing in %v", tt.key, obj)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtractJSONObjectFailures(t *testing.T) {
	for _, text := range []string{
		"",
		"Je ne sais pas.",
		"} inversé {",
		`{"call_reason": "book_appointment"`,
		`{call_reason: book}`,
	} {
		if _, err := ExtractJSONObject(text); !errors.Is(err, ErrNoJSON) {
			t.Errorf("ExtractJSONObject(%q) error = %v, want ErrNoJSON", text, err)
		}
	}
}

func TestExtractJSONObjectFallsBackToFirstBalanced(t *testing.T) {
	text := `{"call_reason": "cancel_appointment"} puis {"autre": }`
	obj, err := ExtractJSONObject(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := obj["call_reason"]; !got.Equal(types.String("cancel_appointment")) {
		t.Fatalf("got %s", got)
	}
}
