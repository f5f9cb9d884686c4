package extractor

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"post-call-insights-go/internal/schema"
	"post-call-insights-go/internal/types"
)

// NoProblemSummary is the summary of a call with no failure reason.
const NoProblemSummary = "Aucun problème détecté lors de l'appel."

// StatisticsFrom assembles CallStatistics from the validated answers.
// Attributes missing from answers keep their null / empty representation.
func StatisticsFrom(answers map[string]types.Value) types.CallStatistics {
	stats := types.CallStatistics{CallTags: []string{}}
	stats.CallReason = stringPtr(answers[schema.CallReason])
	stats.UserSentiment = stringPtr(answers[schema.UserSentiment])
	stats.FailureDescription = stringPtr(answers[schema.FailureDescription])
	stats.UserQuestions = stringPtr(answers[schema.UserQuestions])
	if reasons, ok := answers[schema.FailureReasons].StringList(); ok {
		stats.FailureReasons = reasons
	}
	if tags, ok := answers[schema.CallTags].StringList(); ok {
		stats.CallTags = tags
	}
	return stats
}

func stringPtr(v types.Value) *string {
	s, ok := v.AsString()
	if !ok {
		return nil
	}
	return &s
}

// Outcome holds the fields derived from the failure-related answers.
type Outcome struct {
	ProblemDetected bool
	ProblemType     string
	Tags            []string
	Summary         string
}

// Derive computes problem detection, type, tags and summary from stats.
func Derive(stats types.CallStatistics) Outcome {
	if len(stats.FailureReasons) == 0 {
		return Outcome{
			ProblemType: types.ProblemTypeNone,
			Tags:        []string{},
			Summary:     NoProblemSummary,
		}
	}
	out := Outcome{
		ProblemDetected: true,
		ProblemType:     stats.FailureReasons[0],
		Tags:            append([]string(nil), stats.FailureReasons...),
	}
	if stats.FailureDescription != nil && strings.TrimSpace(*stats.FailureDescription) != "" {
		out.Summary = *stats.FailureDescription
	} else {
		out.Summary = SummarizeReasons(stats.FailureReasons)
	}
	return out
}

// SummarizeReasons phrases failure tags for humans, e.g.
// "2 problèmes détectés : Patient Non Trouve, Erreur Booking."
func SummarizeReasons(reasons []string) string {
	labels := make([]string, 0, len(reasons))
	for _, r := range reasons {
		labels = append(labels, humanizeTag(r))
	}
	if len(labels) == 1 {
		return fmt.Sprintf("Problème détecté : %s.", labels[0])
	}
	return fmt.Sprintf("%d problèmes détectés : %s.", len(labels), strings.Join(labels, ", "))
}

func humanizeTag(tag string) string {
	return cases.Title(language.French).String(strings.ReplaceAll(tag, "_", " "))
}
