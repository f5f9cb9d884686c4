package extractor

import (
	"reflect"
	"testing"

	"post-call-insights-go/internal/schema"
	"post-call-insights-go/internal/types"
)

func TestStatisticsFrom(t *testing.T) {
	stats := StatisticsFrom(map[string]types.Value{
		schema.CallReason:     types.String("book_appointment"),
		schema.UserSentiment:  types.Null(),
		schema.FailureReasons: types.Strings("erreur_booking"),
		schema.CallTags:       types.List(),
	})
	if stats.CallReason == nil || *stats.CallReason != "book_appointment" {
		t.Fatalf("call_reason = %v", stats.CallReason)
	}
	if stats.UserSentiment != nil || stats.FailureDescription != nil || stats.UserQuestions != nil {
		t.Fatal("null and missing answers must stay nil")
	}
	if !reflect.DeepEqual(stats.FailureReasons, []string{"erreur_booking"}) {
		t.Fatalf("failure_reasons = %v", stats.FailureReasons)
	}
	if stats.CallTags == nil || len(stats.CallTags) != 0 {
		t.Fatalf("call_tags = %#v", stats.CallTags)
	}
}

func TestDeriveNoProblem(t *testing.T) {
	for _, reasons := range [][]string{nil, {}} {
		out := Derive(types.CallStatistics{FailureReasons: reasons, FailureDescription: types.StrPtr("ignorée")})
		if out.ProblemDetected || out.ProblemType != types.ProblemTypeNone {
			t.Fatalf("unexpected problem: %+v", out)
		}
		if out.Summary != NoProblemSummary || len(out.Tags) != 0 || out.Tags == nil {
			t.Fatalf("unexpected outcome: %+v", out)
		}
	}
}

func TestDeriveUsesDescription(t *testing.T) {
	out := Derive(types.CallStatistics{
		FailureReasons:     []string{"patient_non_trouve", "erreur_tool"},
		FailureDescription: types.StrPtr("Patient introuvable lors de la recherche"),
	})
	if !out.ProblemDetected || out.ProblemType != "patient_non_trouve" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if !reflect.DeepEqual(out.Tags, []string{"patient_non_trouve", "erreur_tool"}) {
		t.Fatalf("tags = %v", out.Tags)
	}
	if out.Summary != "Patient introuvable lors de la recherche" {
		t.Fatalf("summary = %q", out.Summary)
	}
}

func TestDeriveSummarizesReasons(t *testing.T) {
	out := Derive(types.CallStatistics{FailureReasons: []string{"erreur_booking"}})
	if out.Summary != "Problème détecté : Erreur Booking." {
		t.Fatalf("summary = %q", out.Summary)
	}
	got := SummarizeReasons([]string{"patient_non_trouve", "autres"})
	if got != "2 problèmes détectés : Patient Non Trouve, Autres." {
		t.Fatalf("summary = %q", got)
	}
}
