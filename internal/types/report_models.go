// internal/types/report_models.go
package types

import "encoding/json"

// ProblemTypeNone is reported when no failure reason was extracted.
const ProblemTypeNone = "none"

// --------------------------------------------
// Per-call statistics assembled from the attribute answers
// --------------------------------------------
type CallStatistics struct {
	CallReason         *string  `json:"call_reason"`
	UserSentiment      *string  `json:"user_sentiment"`
	FailureReasons     []string `json:"failure_reasons"`
	FailureDescription *string  `json:"failure_description"`
	CallTags           []string `json:"call_tags"`
	UserQuestions      *string  `json:"user_questions"`
}

// MarshalJSON keeps call_tags a list even when the slice is nil.
func (s CallStatistics) MarshalJSON() ([]byte, error) {
	type plain CallStatistics
	p := plain(s)
	if p.CallTags == nil {
		p.CallTags = []string{}
	}
	return json.Marshal(p)
}

// --------------------------------------------
// Report returned to API and batch callers
// --------------------------------------------
type DetailedAnalysis struct {
	CallID          string         `json:"call_id"`
	Model           string         `json:"model_used,omitempty"`
	ProblemType     string         `json:"problem_type"`
	ProblemDetected bool           `json:"problem_detected"`
	Tags            []string       `json:"tags"`
	Summary         string         `json:"summary"`
	Statistics      CallStatistics `json:"statistics"`
	// Answers holds every validated attribute keyed by question name,
	// including attributes of custom schemas that CallStatistics does not name.
	Answers    map[string]Value `json:"answers,omitempty"`
	DurationMs int64            `json:"duration_ms"`
}
