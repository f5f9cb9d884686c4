package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"post-call-insights-go/internal/schema"
)

// Mock answers extraction prompts offline and deterministically. It reads
// the requested attribute names and the tool block back out of the prompt,
// so the whole pipeline can run without credentials (USE_MOCK_LLM=true).
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

type mockFailure struct {
	tool    string
	message string
}

func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	names := requestedAttributes(req.UserPrompt)
	if len(names) == 0 {
		return "{}", nil
	}
	conversation := strings.ToLower(section(req.UserPrompt, "Conversation:\n", "\n\nRésultats d'outils:"))
	failures := toolFailures(section(req.UserPrompt, "Résultats d'outils:\n", "\nIndice"))

	out := make(map[string]any, len(names))
	for _, name := range names {
		out[name] = mockAnswer(name, conversation, failures)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func requestedAttributes(prompt string) []string {
	var names []string
	for _, line := range strings.Split(prompt, "\n") {
		for _, prefix := range []string{"Tâche: Extraire l'attribut: ", "Attribut: "} {
			if name, ok := strings.CutPrefix(line, prefix); ok {
				names = append(names, strings.TrimSpace(name))
			}
		}
	}
	return names
}

// section returns the text between start and end markers; end may be absent.
func section(s, start, end string) string {
	i := strings.Index(s, start)
	if i == -1 {
		return ""
	}
	s = s[i+len(start):]
	if j := strings.Index(s, end); j != -1 {
		s = s[:j]
	}
	return s
}

func toolFailures(tools string) []mockFailure {
	var out []mockFailure
	for _, line := range strings.Split(tools, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "❌ "):
			name, _, _ := strings.Cut(strings.TrimPrefix(line, "❌ "), " : ")
			out = append(out, mockFailure{tool: name})
		case strings.HasPrefix(line, "Erreur: ") && len(out) > 0:
			out[len(out)-1].message = strings.TrimPrefix(line, "Erreur: ")
		}
	}
	return out
}

func mockAnswer(name, conversation string, failures []mockFailure) any {
	switch name {
	case schema.CallReason:
		return mockCallReason(conversation)
	case schema.UserSentiment:
		if len(failures) > 0 {
			return "frustre"
		}
		return "neutre"
	case schema.FailureReasons:
		if len(failures) == 0 {
			return nil
		}
		reasons := make([]string, 0, len(failures))
		for _, f := range failures {
			reasons = append(reasons, mockErrorTag(f.message))
		}
		return reasons
	case schema.FailureDescription:
		if len(failures) == 0 {
			return nil
		}
		f := failures[0]
		if f.message == "" {
			return fmt.Sprintf("Échec de l'outil %s.", f.tool)
		}
		return fmt.Sprintf("Échec de l'outil %s : %s.", f.tool, f.message)
	case schema.CallTags:
		return []string{}
	}
	return nil
}

func mockCallReason(conversation string) string {
	switch {
	case strings.Contains(conversation, "annul"):
		return "cancel_appointment"
	case strings.Contains(conversation, "déplacer"), strings.Contains(conversation, "décaler"), strings.Contains(conversation, "reporter"):
		return "move_appointment"
	case strings.Contains(conversation, "prendre rendez-vous"), strings.Contains(conversation, "réserver"), strings.Contains(conversation, "un rendez-vous"):
		return "book_appointment"
	case strings.Contains(conversation, "mon rendez-vous"), strings.Contains(conversation, "horaire"):
		return "get_appointment_info"
	}
	return "other_requests"
}

func mockErrorTag(message string) string {
	m := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(message)), " ", "_")
	if m == "" {
		return "erreur_tool"
	}
	for _, tag := range schema.ErrorTags {
		if strings.Contains(m, tag) {
			return tag
		}
	}
	return "erreur_tool"
}
