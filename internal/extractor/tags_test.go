package extractor

import (
	"testing"

	"post-call-insights-go/internal/schema"
)

func TestNormalizeTag(t *testing.T) {
	cases := map[string]string{
		"Nom Du Chirurgien":     "nom_du_chirurgien",
		"  patient-non.trouve ": "patient_non_trouve",
		"__erreur___booking__":  "erreur_booking",
		"rdv - confirmé":        "rdv_confirmé",
		"":                      "",
		"   ":                   "",
	}
	for in, want := range cases {
		if got := NormalizeTag(in); got != want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", in, got, want)
		}
		if again := NormalizeTag(NormalizeTag(in)); again != NormalizeTag(in) {
			t.Errorf("NormalizeTag not idempotent for %q: %q", in, again)
		}
	}
}

func TestMatchOptionExactBeatsContainment(t *testing.T) {
	opts := schema.Options(schema.InfoTags...)
	got, ok := MatchOption("Patient non trouvé", opts)
	if ok {
		// accents are not folded
		t.Fatalf("unexpected match %q", got)
	}

	got, ok = MatchOption("PATIENT NON TROUVE", opts)
	if !ok || got != "patient_non_trouve" {
		t.Fatalf("got %q, %v; want patient_non_trouve", got, ok)
	}
}

func TestMatchOptionContainment(t *testing.T) {
	opts := schema.Options(schema.ErrorTags...)
	got, ok := MatchOption("erreur booking agenda", opts)
	if !ok || got != "erreur_booking" {
		t.Fatalf("got %q, %v; want erreur_booking", got, ok)
	}
}

func TestMatchOptionShortInputsNeedExactMatch(t *testing.T) {
	opts := schema.Options("nom", "prenom", "email")
	if got, ok := MatchOption("NOM", opts); !ok || got != "nom" {
		t.Fatalf("exact short match: got %q, %v", got, ok)
	}
	if got, ok := MatchOption("no", opts); ok {
		t.Fatalf("short input matched %q", got)
	}
	if got, ok := MatchOption("mon nom", opts); ok {
		t.Fatalf("short option matched by containment: %q", got)
	}
}

func TestMatchOptionParaphraseFails(t *testing.T) {
	opts := schema.Options(schema.CallReasons...)
	if got, ok := MatchOption("Réserver un rendez-vous", opts); ok {
		t.Fatalf("paraphrase matched %q", got)
	}
}

func TestMatchOptionSchemaOrder(t *testing.T) {
	opts := schema.Options("date_de_naissance", "date_de_chirurgie")
	got, ok := MatchOption("date_de", opts)
	if !ok || got != "date_de_naissance" {
		t.Fatalf("got %q, %v; want first option in schema order", got, ok)
	}
}
