package rounded

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"post-call-insights-go/internal/types"
)

const unknownToolError = "Erreur inconnue"

// Call is a provider record flattened into transcript, tools and metadata.
type Call struct {
	ID         string
	Transcript []TranscriptItem
	Tools      []ToolCall
	Metadata   map[string]types.Value
	Status     *string
	Duration   *int
}

// TranscriptItem is one raw transcript entry. Tool invocations and tool
// responses live in the transcript next to the spoken turns.
type TranscriptItem struct {
	Role      string
	Content   string
	StartTime *string
}

// ToolCall pairs an agent tool invocation with its response.
type ToolCall struct {
	ID        string
	Name      string
	Input     map[string]types.Value
	Output    map[string]types.Value
	Success   bool
	Error     *string
	Timestamp *string
}

type rawToolRef struct {
	ToolCallID string      `json:"tool_call_id"`
	Name       string      `json:"name"`
	Arguments  types.Value `json:"arguments"`
}

type rawItem struct {
	Role      string       `json:"role"`
	Content   types.Value  `json:"content"`
	StartTime types.Value  `json:"start_time"`
	ToolCalls []rawToolRef `json:"tool_calls"`
}

type rawCall struct {
	ID              types.Value            `json:"id"`
	CallID          types.Value            `json:"call_id"`
	CallIDCamel     types.Value            `json:"callId"`
	Transcript      []json.RawMessage      `json:"transcript"`
	Metadata        map[string]types.Value `json:"metadata"`
	DurationSeconds types.Value            `json:"duration_seconds"`
	Status          types.Value            `json:"status"`
}

// Decode parses a provider record. The record may be wrapped as
// {"data": {...}, "status": ...}; the outer status is used when the inner
// record has none.
func Decode(raw []byte) (Call, error) {
	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Status types.Value     `json:"status"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Call{}, fmt.Errorf("decode call: %w", err)
	}
	body := raw
	if len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		body = envelope.Data
	}
	var rc rawCall
	if err := json.Unmarshal(body, &rc); err != nil {
		return Call{}, fmt.Errorf("decode call: %w", err)
	}

	call := Call{
		Metadata: rc.Metadata,
		Duration: intOf(rc.DurationSeconds),
	}
	for _, id := range []types.Value{rc.ID, rc.CallID, rc.CallIDCamel} {
		if s := textOf(id); s != nil && *s != "" {
			call.ID = *s
			break
		}
	}
	call.Status = textOf(rc.Status)
	if call.Status == nil {
		call.Status = textOf(envelope.Status)
	}

	indexed := map[string]int{}
	for _, entry := range rc.Transcript {
		var item rawItem
		if err := json.Unmarshal(entry, &item); err != nil {
			// non-object entries carry nothing usable
			continue
		}
		content := ""
		if s, ok := item.Content.AsString(); ok {
			content = s
		}
		call.Transcript = append(call.Transcript, TranscriptItem{
			Role:      item.Role,
			Content:   content,
			StartTime: textOf(item.StartTime),
		})

		switch item.Role {
		case "agent":
			for _, tc := range item.ToolCalls {
				if tc.Name == "" || tc.ToolCallID == "" {
					continue
				}
				indexed[tc.ToolCallID] = len(call.Tools)
				call.Tools = append(call.Tools, ToolCall{
					ID:        tc.ToolCallID,
					Name:      tc.Name,
					Input:     arguments(tc.Arguments),
					Success:   true,
					Timestamp: textOf(item.StartTime),
				})
			}
		case "tool":
			for _, ref := range item.ToolCalls {
				i, ok := indexed[ref.ToolCallID]
				if !ok {
					continue
				}
				applyResponse(&call.Tools[i], content)
			}
		}
	}
	return call, nil
}

// applyResponse attaches a tool response and reads its success flag and
// error message.
func applyResponse(tc *ToolCall, content string) {
	out := parseObject(content)
	if out == nil {
		out = map[string]types.Value{"raw_response": types.String(content)}
	}
	tc.Output = out
	if b, ok := out["success"].AsBool(); ok {
		tc.Success = b
	}
	if tc.Success {
		return
	}
	msg := unknownToolError
	for _, key := range []string{"error", "instructions", "message"} {
		if s, ok := out[key].AsString(); ok && strings.TrimSpace(s) != "" {
			msg = s
			break
		}
	}
	tc.Error = &msg
}

// BuildRequest converts a decoded call into the extractor's input. Only
// spoken turns (agent, user, assistant) become conversation turns.
func BuildRequest(call Call) types.CallAnalysisRequest {
	callID := call.ID
	if callID == "" {
		callID = "unknown"
	}
	req := types.CallAnalysisRequest{
		CallID:       callID,
		Conversation: []types.ConversationTurn{},
		ToolResults:  []types.ToolOutcome{},
	}
	for _, item := range call.Transcript {
		switch item.Role {
		case "agent", "user", "assistant":
			req.Conversation = append(req.Conversation, types.ConversationTurn{
				Role:      item.Role,
				Content:   item.Content,
				Timestamp: item.StartTime,
			})
		}
	}
	for _, tc := range call.Tools {
		outcome := types.ToolOutcome{
			ToolName:  tc.Name,
			Input:     tc.Input,
			Output:    tc.Output,
			Success:   tc.Success,
			Timestamp: tc.Timestamp,
		}
		if !tc.Success {
			outcome.ErrorMessage = tc.Error
			for _, key := range []string{"error", "message"} {
				if s, ok := tc.Output[key].AsString(); ok && s != "" {
					outcome.ErrorMessage = &s
					break
				}
			}
		}
		req.ToolResults = append(req.ToolResults, outcome)
	}

	meta := &types.CallMetadata{
		CallID:   callID,
		Duration: call.Duration,
		Status:   call.Status,
	}
	meta.TriggeredTool = textOf(call.Metadata["tool"])
	meta.Timestamp = textOf(call.Metadata["timestamp"])
	meta.AgentID = textOf(call.Metadata["agent_id"])
	req.Metadata = meta
	return req
}

func arguments(v types.Value) map[string]types.Value {
	if m, ok := v.AsMap(); ok {
		return m
	}
	if s, ok := v.AsString(); ok {
		if m := parseObject(s); m != nil {
			return m
		}
	}
	return map[string]types.Value{}
}

func parseObject(s string) map[string]types.Value {
	var v types.Value
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	m, ok := v.AsMap()
	if !ok {
		return nil
	}
	return m
}

// textOf renders scalar values as text; status codes and timestamps arrive
// as either strings or numbers.
func textOf(v types.Value) *string {
	switch v.Kind() {
	case types.KindString:
		s, _ := v.AsString()
		return &s
	case types.KindNumber, types.KindBool:
		s := v.String()
		return &s
	}
	return nil
}

func intOf(v types.Value) *int {
	if n, ok := v.AsNumber(); ok {
		i := int(n)
		return &i
	}
	if s, ok := v.AsString(); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return &i
		}
	}
	return nil
}
