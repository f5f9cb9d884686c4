package schema

import (
	"errors"
	"testing"

	"post-call-insights-go/internal/types"
)

func TestDefaultSchemaIsValid(t *testing.T) {
	s := Default()
	want := []string{CallReason, UserSentiment, FailureReasons, FailureDescription, CallTags, UserQuestions}
	qs := s.Questions()
	if len(qs) != len(want) {
		t.Fatalf("expected %d questions, got %d", len(want), len(qs))
	}
	for i, name := range want {
		if qs[i].Name != name {
			t.Errorf("question %d = %q, want %q", i, qs[i].Name, name)
		}
	}
	q, ok := s.Lookup(CallReason)
	if !ok {
		t.Fatal("call_reason not found")
	}
	if d, _ := q.Default.AsString(); d != "other_requests" {
		t.Errorf("call_reason default = %v", q.Default)
	}
	tags, _ := s.Lookup(CallTags)
	if items, ok := tags.Default.AsList(); !ok || len(items) != 0 {
		t.Errorf("call_tags default = %v, want []", tags.Default)
	}
}

func TestNewRejectsInvalidQuestions(t *testing.T) {
	tests := []struct {
		name string
		qs   []Question
	}{
		{"empty", nil},
		{"no name", []Question{{Shape: FreeText, Nullable: true}}},
		{"bad shape", []Question{{Name: "x", Shape: "essay", Nullable: true}}},
		{"choice without options", []Question{{Name: "x", Shape: SingleChoice, Nullable: true}}},
		{"duplicate option", []Question{{Name: "x", Shape: MultiChoice, Options: Options("a", "a"), Nullable: true}}},
		{"non-nullable without default", []Question{{Name: "x", Shape: SingleChoice, Options: Options("a")}}},
		{"default not an option", []Question{{Name: "x", Shape: SingleChoice, Options: Options("a"), Default: types.String("b")}}},
		{"multi default not a list", []Question{{Name: "x", Shape: MultiChoice, Options: Options("a"), Default: types.String("a")}}},
		{"bool default wrong type", []Question{{Name: "x", Shape: Boolean, Default: types.String("yes")}}},
		{"duplicate name", []Question{
			{Name: "x", Shape: FreeText, Nullable: true},
			{Name: "x", Shape: FreeText, Nullable: true},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.qs...)
			if !errors.Is(err, ErrInvalidSchema) {
				t.Fatalf("expected ErrInvalidSchema, got %v", err)
			}
		})
	}
}

func TestNonNullableMultiChoiceMayOmitDefault(t *testing.T) {
	_, err := New(Question{Name: "tags", Shape: MultiChoice, Options: Options("a", "b")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQuestionsReturnsCopy(t *testing.T) {
	s := Default()
	qs := s.Questions()
	qs[0].Name = "mutated"
	if s.Questions()[0].Name != CallReason {
		t.Error("schema was mutated through Questions()")
	}
}
