package extractor

import (
	"fmt"
	"strings"

	"post-call-insights-go/internal/types"
)

const (
	emptyConversationText = "(aucun échange enregistré)"
	emptyToolsText        = "(aucun outil appelé)"
	unknownToolError      = "Erreur inconnue"
)

// failureKeywords flag a failure mentioned in the transcript itself.
var failureKeywords = []string{"erreur", "échec", "echec"}

func roleLabel(t types.ConversationTurn) string {
	switch t.RoleClass() {
	case types.RoleCaller:
		return "[Appelant]"
	case types.RoleAgent:
		return "[Agent]"
	default:
		role := strings.TrimSpace(t.Role)
		if role == "" {
			role = "inconnu"
		}
		return fmt.Sprintf("[Autre:%s]", role)
	}
}

// BuildConversationText renders turns in their original order, one
// role-labelled paragraph per turn.
func BuildConversationText(turns []types.ConversationTurn) string {
	if len(turns) == 0 {
		return emptyConversationText
	}
	paragraphs := make([]string, 0, len(turns))
	for _, t := range turns {
		paragraphs = append(paragraphs, roleLabel(t)+" "+strings.TrimSpace(t.Content))
	}
	return strings.Join(paragraphs, "\n\n")
}

// BuildToolsText renders one line per tool outcome in the supplied order.
// Failed outcomes get an extra error line; successful ones never do.
func BuildToolsText(outcomes []types.ToolOutcome) string {
	if len(outcomes) == 0 {
		return emptyToolsText
	}
	var b strings.Builder
	for i, o := range outcomes {
		if i > 0 {
			b.WriteByte('\n')
		}
		name := strings.TrimSpace(o.ToolName)
		if name == "" {
			name = "outil_inconnu"
		}
		if o.Success {
			fmt.Fprintf(&b, "✅ %s : succès", name)
			continue
		}
		msg := unknownToolError
		if o.ErrorMessage != nil && strings.TrimSpace(*o.ErrorMessage) != "" {
			msg = strings.TrimSpace(*o.ErrorMessage)
		}
		fmt.Fprintf(&b, "❌ %s : échec\n   Erreur: %s", name, msg)
	}
	return b.String()
}

// FailureObserved reports whether any tool failed or any turn mentions a
// failure keyword.
func FailureObserved(req types.CallAnalysisRequest) bool {
	if req.FailedTools() > 0 {
		return true
	}
	for _, t := range req.Conversation {
		content := strings.ToLower(t.Content)
		for _, kw := range failureKeywords {
			if strings.Contains(content, kw) {
				return true
			}
		}
	}
	return false
}

// FailureNote turns the failure signal into the hint appended to
// failure-related prompts.
func FailureNote(observed bool) string {
	if observed {
		return "Indice : au moins un outil a échoué ou la conversation mentionne une erreur. Identifie précisément le ou les échecs."
	}
	return "Indice : aucun échec d'outil ni mention d'erreur n'a été relevé. Sauf échec manifeste, retourne null."
}
