package types

import "strings"

// Role classes used by the transcript builders.
const (
	RoleCaller = "caller"
	RoleAgent  = "agent"
	RoleOther  = "other"
)

// ConversationTurn is one utterance of the call, in chronological order.
type ConversationTurn struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp *string `json:"timestamp,omitempty"`
}

// RoleClass maps the provider role onto caller / agent / other.
func (t ConversationTurn) RoleClass() string {
	switch strings.ToLower(strings.TrimSpace(t.Role)) {
	case "user", "caller", "customer":
		return RoleCaller
	case "agent", "assistant":
		return RoleAgent
	default:
		return RoleOther
	}
}

// ToolOutcome is one external action taken by the voice agent during the call.
type ToolOutcome struct {
	ToolName     string           `json:"tool_name"`
	Input        map[string]Value `json:"input"`
	Output       map[string]Value `json:"output"`
	Success      bool             `json:"success"`
	ErrorMessage *string          `json:"error_message,omitempty"`
	Timestamp    *string          `json:"timestamp,omitempty"`
}

type CallMetadata struct {
	CallID        string  `json:"call_id"`
	Duration      *int    `json:"duration,omitempty"`
	Status        *string `json:"status,omitempty"`
	TriggeredTool *string `json:"triggered_tool,omitempty"`
	Timestamp     *string `json:"timestamp,omitempty"`
	AgentID       *string `json:"agent_id,omitempty"`
}

// CallAnalysisRequest is the unit of work handed to the extractor.
type CallAnalysisRequest struct {
	CallID       string             `json:"call_id"`
	Conversation []ConversationTurn `json:"conversation"`
	ToolResults  []ToolOutcome      `json:"tool_results"`
	Metadata     *CallMetadata      `json:"metadata,omitempty"`
}

// FailedTools counts tool outcomes with success=false.
func (r CallAnalysisRequest) FailedTools() int {
	n := 0
	for _, t := range r.ToolResults {
		if !t.Success {
			n++
		}
	}
	return n
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }
