package actionable

import (
	"fmt"

	"post-call-insights-go/internal/aggregator"
)

// DominanceThreshold is the share of analyzed calls a failure reason must
// reach before it gets its own card.
const DominanceThreshold = 0.35

type ActionCard struct {
	Insight string  `json:"insight"`
	Action  string  `json:"action"`
	Impact  string  `json:"impact"`
	Tag     string  `json:"tag,omitempty"`
	Share   float64 `json:"share"`
}

var actions = map[string]string{
	"patient_non_trouve":      "Revoir la recherche patient (orthographe du nom, date de naissance) et faire épeler le nom",
	"praticien_non_trouve":    "Compléter l'annuaire des praticiens et leurs alias",
	"operation_non_trouvee":   "Enrichir le référentiel des interventions",
	"pas_de_disponibilites":   "Élargir la fenêtre de recherche de créneaux et proposer une liste d'attente",
	"erreur_booking":          "Vérifier l'intégration avec l'agenda de réservation",
	"erreur_tool":             "Surveiller la disponibilité des outils métier et ajouter des alertes",
	"entity_detection_erreur": "Revoir la détection d'entités sur les appels concernés",
	"informations_manquantes": "Demander les informations obligatoires plus tôt dans l'appel",
}

const defaultAction = "Analyser un échantillon des appels concernés et corriger le parcours"

// Generate builds a card for the most frequent failure reason when it
// reaches DominanceThreshold of the analyzed calls.
func Generate(ins aggregator.Insight) ActionCard {
	if ins.Analyzed > 0 {
		if top := aggregator.Top(ins.FailureCounts, 1); len(top) == 1 {
			share := float64(top[0].Count) / float64(ins.Analyzed)
			if share >= DominanceThreshold {
				action, ok := actions[top[0].Key]
				if !ok {
					action = defaultAction
				}
				return ActionCard{
					Insight: fmt.Sprintf("Échec dominant : %s (%.0f%% des appels)", top[0].Key, share*100),
					Action:  action,
					Impact:  fmt.Sprintf("%d appels en échec sur %d analysés", ins.WithProblem, ins.Analyzed),
					Tag:     top[0].Key,
					Share:   share,
				}
			}
		}
	}
	return ActionCard{
		Insight: "Aucun motif d'échec dominant",
		Action:  "Continuer le suivi et collecter plus d'appels",
		Impact:  "Pas d'intervention immédiate",
	}
}
