package extractor

import (
	"encoding/json"
	"math"
	"testing"

	"post-call-insights-go/internal/schema"
	"post-call-insights-go/internal/types"
)

func question(t *testing.T, name string) schema.Question {
	t.Helper()
	q, ok := schema.Default().Lookup(name)
	if !ok {
		t.Fatalf("question %s not in default schema", name)
	}
	return q
}

func TestNormalizeSingleChoice(t *testing.T) {
	q := question(t, schema.CallReason)
	tests := []struct {
		name    string
		raw     types.Value
		present bool
		want    types.Value
	}{
		{"exact", types.String("book_appointment"), true, types.String("book_appointment")},
		{"case and spaces", types.String(" Book Appointment "), true, types.String("book_appointment")},
		{"paraphrase falls back", types.String("Réserver un rendez-vous"), true, types.String("other_requests")},
		{"absent", types.Null(), false, types.String("other_requests")},
		{"null literal", types.String("null"), true, types.String("other_requests")},
		{"wrong kind", types.Number(3), true, types.String("other_requests")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, tt.present, q)
			if !got.Equal(tt.want) {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNormalizeNullableSingleChoice(t *testing.T) {
	q := question(t, schema.UserSentiment)
	if got := Normalize(types.Null(), true, q); !got.IsNull() {
		t.Fatalf("null answer: got %s", got)
	}
	if got := Normalize(types.String("furieux"), true, q); !got.IsNull() {
		t.Fatalf("no match on nullable: got %s", got)
	}
	if got := Normalize(types.String("Très satisfait"), true, q); !got.Equal(types.String("satisfait")) {
		t.Fatalf("containment: got %s", got)
	}
}

func TestNormalizeMultiChoiceKeepsMatchedInOrder(t *testing.T) {
	q := question(t, schema.FailureReasons)
	raw := types.Strings(
		"Erreur Booking",
		"probleme inconnu",
		"patient-non-trouve",
		"xyz",
		"timeout réseau",
	)
	got := Normalize(raw, true, q)
	want := types.Strings("erreur_booking", "patient_non_trouve")
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestNormalizeMultiChoiceDedupes(t *testing.T) {
	q := question(t, schema.CallTags)
	got := Normalize(types.Strings("email", "EMAIL", "nom"), true, q)
	want := types.Strings("email", "nom")
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestNormalizeMultiChoiceEmpty(t *testing.T) {
	nullable := question(t, schema.FailureReasons)
	required := question(t, schema.CallTags)

	if got := Normalize(types.Strings("zzzz"), true, nullable); !got.IsNull() {
		t.Fatalf("nullable without match: got %s", got)
	}
	if got := Normalize(types.Strings("zzzz"), true, required); !got.Equal(types.List()) {
		t.Fatalf("required without match: got %s", got)
	}
	if got := Normalize(types.String("email"), true, required); !got.Equal(types.List()) {
		t.Fatalf("scalar for multi choice: got %s", got)
	}
	if got := Normalize(types.Null(), false, required); !got.Equal(types.List()) {
		t.Fatalf("absent required list: got %s", got)
	}
}

func TestNormalizeText(t *testing.T) {
	q := question(t, schema.FailureDescription)
	if got := Normalize(types.String("  Patient introuvable  "), true, q); !got.Equal(types.String("Patient introuvable")) {
		t.Fatalf("got %s", got)
	}
	if got := Normalize(types.String("ok"), true, q); !got.IsNull() {
		t.Fatalf("short text: got %s", got)
	}
	if got := Normalize(types.Strings("a", "b"), true, q); !got.IsNull() {
		t.Fatalf("list for single-line text: got %s", got)
	}
}

func TestNormalizeMultilineAcceptsList(t *testing.T) {
	q := question(t, schema.UserQuestions)
	got := Normalize(types.Strings("Quel est mon créneau ?", " ", "Dois-je venir à jeun ?"), true, q)
	want := types.String("Quel est mon créneau ?\nDois-je venir à jeun ?")
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestNormalizeBoolAndNumber(t *testing.T) {
	b := schema.Question{Name: "rappel", Shape: schema.Boolean, Nullable: true}
	for raw, want := range map[string]bool{"oui": true, "Non": false, "true": true, "0": false, "VRAI": true} {
		got := Normalize(types.String(raw), true, b)
		if !got.Equal(types.Bool(want)) {
			t.Errorf("bool %q: got %s", raw, got)
		}
	}
	if got := Normalize(types.String("peut-être"), true, b); !got.IsNull() {
		t.Errorf("unknown bool: got %s", got)
	}

	n := schema.Question{Name: "attente", Shape: schema.Number, Default: types.Number(0)}
	if got := Normalize(types.String("3,5"), true, n); !got.Equal(types.Number(3.5)) {
		t.Errorf("comma decimal: got %s", got)
	}
	if got := Normalize(types.Number(12), true, n); !got.Equal(types.Number(12)) {
		t.Errorf("number: got %s", got)
	}
	if got := Normalize(types.String("douze"), true, n); !got.Equal(types.Number(0)) {
		t.Errorf("bad number: got %s", got)
	}
	for _, raw := range []string{"NaN", "Inf", "-infinity", "+Inf"} {
		got := Normalize(types.String(raw), true, n)
		if !got.Equal(types.Number(0)) {
			t.Errorf("%q: got %s, want the default", raw, got)
		}
		if _, err := json.Marshal(types.DetailedAnalysis{Answers: map[string]types.Value{"attente": got}}); err != nil {
			t.Errorf("%q: analysis does not encode: %v", raw, err)
		}
	}
	if got := Normalize(types.Number(math.Inf(1)), true, n); !got.Equal(types.Number(0)) {
		t.Errorf("infinite number: got %s", got)
	}
}

func TestDefaultForNeverNullWhenRequired(t *testing.T) {
	for _, q := range schema.Default().Questions() {
		d := DefaultFor(q)
		if !q.Nullable && d.IsNull() {
			t.Errorf("%s: null default for non-nullable question", q.Name)
		}
	}
}
