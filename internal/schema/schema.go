package schema

import (
	"errors"
	"fmt"

	"post-call-insights-go/internal/types"
)

// ErrInvalidSchema is returned when a question list cannot be used for extraction.
var ErrInvalidSchema = errors.New("invalid question schema")

// Shape is the structural type expected for an attribute's answer.
type Shape string

const (
	SingleChoice      Shape = "single_choice"
	MultiChoice       Shape = "multi_choice"
	FreeText          Shape = "free_text"
	FreeTextMultiline Shape = "free_text_multiline"
	Boolean           Shape = "boolean"
	Number            Shape = "number"
)

func (s Shape) IsChoice() bool { return s == SingleChoice || s == MultiChoice }
func (s Shape) IsText() bool   { return s == FreeText || s == FreeTextMultiline }

func (s Shape) valid() bool {
	switch s {
	case SingleChoice, MultiChoice, FreeText, FreeTextMultiline, Boolean, Number:
		return true
	}
	return false
}

// Option is one allowed literal for a choice question.
type Option struct {
	FieldKey string `json:"field_key"`
}

// Question describes one attribute extracted from a call.
type Question struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Shape       Shape       `json:"response_shape"`
	Options     []Option    `json:"options,omitempty"`
	Required    bool        `json:"required"`
	Nullable    bool        `json:"nullable"`
	Default     types.Value `json:"default_value"`
	// FailureRelated questions receive the failure hint in their prompt.
	FailureRelated bool `json:"failure_related,omitempty"`
}

// Values returns the canonical option strings in schema order.
func (q Question) Values() []string {
	out := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		out = append(out, o.FieldKey)
	}
	return out
}

func (q Question) hasValue(s string) bool {
	for _, o := range q.Options {
		if o.FieldKey == s {
			return true
		}
	}
	return false
}

func (q Question) validate() error {
	if q.Name == "" {
		return fmt.Errorf("%w: question with empty name", ErrInvalidSchema)
	}
	if !q.Shape.valid() {
		return fmt.Errorf("%w: %s: unknown shape %q", ErrInvalidSchema, q.Name, q.Shape)
	}
	if q.Shape.IsChoice() && len(q.Options) == 0 {
		return fmt.Errorf("%w: %s: choice question without options", ErrInvalidSchema, q.Name)
	}
	seen := map[string]bool{}
	for _, o := range q.Options {
		if o.FieldKey == "" {
			return fmt.Errorf("%w: %s: empty option value", ErrInvalidSchema, q.Name)
		}
		if seen[o.FieldKey] {
			return fmt.Errorf("%w: %s: duplicate option %q", ErrInvalidSchema, q.Name, o.FieldKey)
		}
		seen[o.FieldKey] = true
	}
	return q.validateDefault()
}

// validateDefault checks the default against the shape. Non-nullable
// questions need a usable default, except multi-choice where [] is implied.
func (q Question) validateDefault() error {
	d := q.Default
	if d.IsNull() {
		if !q.Nullable && q.Shape != MultiChoice {
			return fmt.Errorf("%w: %s: non-nullable question needs a default", ErrInvalidSchema, q.Name)
		}
		return nil
	}
	switch q.Shape {
	case SingleChoice:
		s, ok := d.AsString()
		if !ok || !q.hasValue(s) {
			return fmt.Errorf("%w: %s: default %s is not an option", ErrInvalidSchema, q.Name, d)
		}
	case MultiChoice:
		items, ok := d.AsList()
		if !ok {
			return fmt.Errorf("%w: %s: default %s is not a list", ErrInvalidSchema, q.Name, d)
		}
		for _, item := range items {
			s, ok := item.AsString()
			if !ok || !q.hasValue(s) {
				return fmt.Errorf("%w: %s: default element %s is not an option", ErrInvalidSchema, q.Name, item)
			}
		}
	case FreeText, FreeTextMultiline:
		if _, ok := d.AsString(); !ok {
			return fmt.Errorf("%w: %s: default %s is not text", ErrInvalidSchema, q.Name, d)
		}
	case Boolean:
		if _, ok := d.AsBool(); !ok {
			return fmt.Errorf("%w: %s: default %s is not a boolean", ErrInvalidSchema, q.Name, d)
		}
	case Number:
		if _, ok := d.AsNumber(); !ok {
			return fmt.Errorf("%w: %s: default %s is not a number", ErrInvalidSchema, q.Name, d)
		}
	}
	return nil
}

// Schema is an immutable, ordered list of questions. Build it once at
// startup and share it read-only between requests.
type Schema struct {
	questions []Question
	index     map[string]int
}

// New validates questions and returns a Schema preserving their order.
func New(questions ...Question) (Schema, error) {
	if len(questions) == 0 {
		return Schema{}, fmt.Errorf("%w: no questions", ErrInvalidSchema)
	}
	s := Schema{
		questions: make([]Question, 0, len(questions)),
		index:     make(map[string]int, len(questions)),
	}
	for _, q := range questions {
		if err := q.validate(); err != nil {
			return Schema{}, err
		}
		if _, dup := s.index[q.Name]; dup {
			return Schema{}, fmt.Errorf("%w: duplicate question %q", ErrInvalidSchema, q.Name)
		}
		q.Options = append([]Option(nil), q.Options...)
		s.index[q.Name] = len(s.questions)
		s.questions = append(s.questions, q)
	}
	return s, nil
}

// Questions returns a copy of the questions in schema order.
func (s Schema) Questions() []Question {
	return append([]Question(nil), s.questions...)
}

func (s Schema) Len() int { return len(s.questions) }

func (s Schema) Lookup(name string) (Question, bool) {
	i, ok := s.index[name]
	if !ok {
		return Question{}, false
	}
	return s.questions[i], true
}

// Options builds an option list from canonical values.
func Options(values ...string) []Option {
	out := make([]Option, 0, len(values))
	for _, v := range values {
		out = append(out, Option{FieldKey: v})
	}
	return out
}
