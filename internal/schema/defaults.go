package schema

import "post-call-insights-go/internal/types"

// Attribute names of the default schema. CallStatistics is built from these.
const (
	CallReason         = "call_reason"
	UserSentiment      = "user_sentiment"
	FailureReasons     = "failure_reasons"
	FailureDescription = "failure_description"
	CallTags           = "call_tags"
	UserQuestions      = "user_questions"
)

var (
	ErrorTags = []string{
		"patient_non_trouve",
		"praticien_non_trouve",
		"operation_non_trouvee",
		"pas_de_disponibilites",
		"erreur_booking",
		"erreur_tool",
		"entity_detection_erreur",
		"informations_manquantes",
		"autres",
	}

	CallReasons = []string{
		"get_appointment_info",
		"book_appointment",
		"cancel_appointment",
		"move_appointment",
		"other_requests",
	}

	UserSentiments = []string{
		"positif",
		"neutre",
		"negatif",
		"frustre",
		"satisfait",
		"confus",
	}

	InfoTags = []string{
		"nom_du_chirurgien",
		"date_de_chirurgie",
		"intitule_chirurgie",
		"anticoagulants",
		"disponibilites_enoncees",
		"patient_trouve",
		"patient_non_trouve",
		"nom",
		"prenom",
		"date_de_naissance",
		"email",
		"adresse",
		"rdv_confirme",
		"appel_transfere",
	}
)

// DefaultQuestions is the production question list for medical-office calls.
func DefaultQuestions() []Question {
	return []Question{
		{
			Name:        CallReason,
			Description: "Identifie le motif principal formulé explicitement ou implicitement par l'appelant : la raison initiale et essentielle pour laquelle il a contacté l'accueil. Sélectionne UNE seule valeur la plus représentative, qui caractérise au mieux l'objectif exprimé (même s'il y a plusieurs demandes secondaires). Base-toi uniquement sur ce que l'appelant cherche à réaliser ou demande directement, sans interprétation excessive ni influence de l'agent.",
			Shape:       SingleChoice,
			Options:     Options(CallReasons...),
			Required:    true,
			Default:     types.String("other_requests"),
		},
		{
			Name:        UserSentiment,
			Description: "Analyse le ton, l'attitude générale et le ressenti global de l'appelant tout au long de l'appel. Concentre-toi uniquement sur l'appelant (ignorer l'agent). Déduis cette information à partir du vocabulaire, du niveau de politesse, d'éventuels signes de frustration, de satisfaction ou de confusion, des exclamations, ou des indices laissés dans le discours. Ne tire que des conclusions appuyées par des éléments manifestes dans la conversation.",
			Shape:       SingleChoice,
			Options:     Options(UserSentiments...),
			Nullable:    true,
		},
		{
			Name:           FailureReasons,
			Description:    "Liste tous les tags d'erreur applicables en cas de dysfonctionnement ou d'échec survenu durant l'appel (exemples : panne d'un outil, entité recherchée introuvable, information manquante, problème de prise de rendez-vous, etc.). Fournis toutes les causes pertinentes détectées dans le transcript de l'appel ou dans les résultats d'outils éventuels. Retourne une liste possiblement vide. Prends en compte les erreurs même partielles ou multiples.",
			Shape:          MultiChoice,
			Options:        Options(ErrorTags...),
			Nullable:       true,
			FailureRelated: true,
		},
		{
			Name:           FailureDescription,
			Description:    "Rédige une brève description factuelle, précise et synthétique de l'éventuel échec détecté. Décris ce qui s'est produit (quoi, où, pour quelle raison si possible), en mentionnant : l'information ou l'outil concerné, l'étape du processus, et tout symptôme pertinent (exemple : « patient non trouvé lors de la recherche », « échec de l'outil Agenda (timeout) », « information date de naissance manquante »). Sois neutre, objectif et le plus concis possible.",
			Shape:          FreeText,
			Nullable:       true,
			FailureRelated: true,
		},
		{
			Name:        CallTags,
			Description: "Identifie et rassemble tous les tags décrivant les informations concrètement échangées, présentées ou confirmées lors de l'appel : champs administratifs, éléments médicaux (comme un nom de chirurgien, une date d'intervention), disponibilités précisées, etc. Inclure chaque tag mentionné explicitement ou validé sans interprétation. La liste doit toujours être fournie, même si elle est vide.",
			Shape:       MultiChoice,
			Options:     Options(InfoTags...),
			Required:    true,
			Default:     types.List(),
		},
		{
			Name:        UserQuestions,
			Description: "Dresse une liste exhaustive et synthétique de toutes les questions posées par l'appelant (rôle 'user') portant sur une demande d'information précise, une clarification ou une recherche de confirmation. Exclure toute question issue de l'agent et toute remarque non formulée comme une question authentique. Pour chaque question, restitue une phrase claire qui explicite ce à quoi l'appelant souhaite obtenir une réponse ou une précision.",
			Shape:       FreeTextMultiline,
			Nullable:    true,
		},
	}
}

// Default returns the validated production schema. It panics on an invalid
// built-in list, which is a programming error caught by tests.
func Default() Schema {
	s, err := New(DefaultQuestions()...)
	if err != nil {
		panic(err)
	}
	return s
}
