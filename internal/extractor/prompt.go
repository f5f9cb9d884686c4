package extractor

import (
	"fmt"
	"strings"

	"post-call-insights-go/internal/schema"
)

// SystemPrompt is the question-independent policy sent with every extraction.
const SystemPrompt = `Tu es un extracteur déterministe d'informations à partir de conversations entre un appelant et un agent vocal.
Ta mission est de produire UNIQUEMENT un objet JSON valide, strictement conforme aux consignes de format et aux valeurs autorisées.

RÈGLES GÉNÉRALES (appliquer à chaque requête) :
1) Format de sortie :
   - Réponds EXCLUSIVEMENT par un unique objet JSON valide.
   - AUCUN texte hors JSON, AUCUN commentaire, AUCUN markdown, AUCUNE explication.
   - Pas de virgule finale, pas de champs supplémentaires non demandés.
2) Valeurs autorisées :
   - Lorsque des options sont fournies, COPIE-COLLE EXACTEMENT les valeurs (sensible à la casse, accents, underscores).
   - Aucune synonymie, aucune reformulation, aucune traduction.
3) Gestion de l'incertitude :
   - Si une valeur n'est pas déductible de manière certaine à partir du transcript et/ou des résultats d'outils, utilise la valeur par défaut fournie ou null selon la consigne.
   - Pour les listes (choix multiples), retourne [] s'il n'y a aucune valeur applicable.
4) Source d'information :
   - Base-toi UNIQUEMENT sur le transcript et les résultats d'outils fournis. N'invente pas d'informations.
   - N'infère pas au-delà d'indices clairs et explicites.
5) Spécificités :
   - Les tags et raisons sont des identifiants machine (garde EXACTEMENT la forme fournie, y compris les underscores).
   - Pour le sentiment, analyse exclusivement l'appelant (ignorer l'agent).
6) Cohérence :
   - Respecte strictement le schéma demandé dans l'invite (noms de clés, type attendu).

Ne réponds QU'EN JSON valide, sans aucun texte additionnel.
`

const reminderBlock = `Rappels obligatoires :
- Réponds EXCLUSIVEMENT par un unique objet JSON valide (aucun texte hors JSON, aucun markdown, aucune explication).
- N'ajoute AUCUNE clé supplémentaire au schéma demandé.
- Si des options sont fournies, COPIE-COLLE EXACTEMENT les valeurs (casse/accents/underscores conservés).
- Si l'information est incertaine, utilise null, [] ou la valeur par défaut selon la consigne.
- Appuie-toi UNIQUEMENT sur le transcript et les résultats d'outils fournis (aucune invention).`

const absoluteRule = "RÈGLE ABSOLUE : copie-colle EXACTEMENT les valeurs depuis la liste fournie. Pas de variations, pas de reformulation."

// shapeInstruction returns the instruction line and the JSON value skeleton
// for q's shape.
func shapeInstruction(q schema.Question) (instruction, skeleton string) {
	among := ""
	if len(q.Options) > 0 {
		among = " parmi les valeurs autorisées"
	}
	orNull := ""
	if q.Nullable {
		orNull = " | null"
	}
	switch q.Shape {
	case schema.SingleChoice:
		return fmt.Sprintf("Sélectionne UNE seule valeur EXACTE%s.", among), `"valeur"` + orNull
	case schema.MultiChoice:
		return fmt.Sprintf("Sélectionne toutes les valeurs pertinentes%s (liste vide [] si aucune). Utilise EXACTEMENT les valeurs fournies.", among),
			`["valeur1", "valeur2"]` + orNull
	case schema.FreeText:
		return "Fournis un texte explicatif court et factuel.", `"texte"` + orNull
	case schema.FreeTextMultiline:
		return "Fournis un texte, une ligne par élément (séparées par \\n).", `"ligne 1\nligne 2"` + orNull
	case schema.Boolean:
		return "Fournis true ou false.", "true" + orNull
	case schema.Number:
		return "Fournis un nombre.", "123" + orNull
	}
	return "Retourne au bon format JSON.", "null"
}

func allowedValuesLine(q schema.Question) string {
	if len(q.Options) == 0 {
		return ""
	}
	return "VALEURS EXACTES AUTORISÉES (utilise EXACTEMENT ces valeurs) :\n" + strings.Join(q.Values(), ", ")
}

// BuildPrompt synthesizes the (system, user) prompt pair extracting one
// attribute. failureNote is appended last and may be empty. Pure.
func BuildPrompt(q schema.Question, conversationText, toolsText, failureNote string) (system, user string) {
	instruction, skeleton := shapeInstruction(q)

	var b strings.Builder
	fmt.Fprintf(&b, "Tâche: Extraire l'attribut: %s\n", q.Name)
	fmt.Fprintf(&b, "But: %s\n", q.Description)
	fmt.Fprintf(&b, "Consignes: %s\n", instruction)
	if values := allowedValuesLine(q); values != "" {
		b.WriteString("\n" + values + "\n")
		if q.Shape.IsChoice() {
			b.WriteString(absoluteRule + "\n")
		}
	}
	b.WriteString("\n" + reminderBlock + "\n\n")
	b.WriteString("Format attendu (structure) :\n")
	fmt.Fprintf(&b, "{\n    %q: %s\n}\n\n", q.Name, skeleton)
	writeSources(&b, conversationText, toolsText, failureNote)

	return SystemPrompt, b.String()
}

// BuildBatchPrompt asks for several attributes in one JSON object. Each
// attribute keeps its own instruction and allowed values.
func BuildBatchPrompt(qs []schema.Question, conversationText, toolsText, failureNote string) (system, user string) {
	var b strings.Builder
	names := make([]string, 0, len(qs))
	for _, q := range qs {
		names = append(names, q.Name)
	}
	fmt.Fprintf(&b, "Tâche: Extraire les attributs: %s\n\n", strings.Join(names, ", "))
	for _, q := range qs {
		instruction, _ := shapeInstruction(q)
		fmt.Fprintf(&b, "Attribut: %s\n", q.Name)
		fmt.Fprintf(&b, "But: %s\n", q.Description)
		fmt.Fprintf(&b, "Consignes: %s\n", instruction)
		if values := allowedValuesLine(q); values != "" {
			b.WriteString(values + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(absoluteRule + "\n\n")
	b.WriteString(reminderBlock + "\n\n")
	b.WriteString("Format attendu (structure) :\n{\n")
	for i, q := range qs {
		_, skeleton := shapeInstruction(q)
		sep := ","
		if i == len(qs)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "    %q: %s%s\n", q.Name, skeleton, sep)
	}
	b.WriteString("}\n\n")
	writeSources(&b, conversationText, toolsText, failureNote)

	return SystemPrompt, b.String()
}

func writeSources(b *strings.Builder, conversationText, toolsText, failureNote string) {
	b.WriteString("Conversation:\n")
	b.WriteString(conversationText)
	b.WriteString("\n\nRésultats d'outils:\n")
	b.WriteString(toolsText)
	b.WriteString("\n")
	if failureNote != "" {
		b.WriteString("\n" + failureNote + "\n")
	}
}
