package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"post-call-insights-go/internal/actionable"
	"post-call-insights-go/internal/aggregator"
	"post-call-insights-go/internal/batch"
	"post-call-insights-go/internal/logger"
)

// BatchReport is the JSON dump of a batch run.
type BatchReport struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Insight     aggregator.Insight    `json:"insight"`
	Action      actionable.ActionCard `json:"action"`
	Results     []batch.Result        `json:"results"`
}

func Summarize(results []batch.Result) BatchReport {
	ins := aggregator.Aggregate(results)
	if results == nil {
		results = []batch.Result{}
	}
	return BatchReport{
		GeneratedAt: time.Now(),
		Insight:     ins,
		Action:      actionable.Generate(ins),
		Results:     results,
	}
}

// WriteReport dumps Summarize(results) to path as indented JSON.
func WriteReport(path string, results []batch.Result, log *logger.Logger) (BatchReport, error) {
	if log == nil {
		log = logger.Discard()
	}
	rep := Summarize(results)
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return rep, fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		log.WithError(err).WithField("path", path).Error("write report failed")
		return rep, fmt.Errorf("write report: %w", err)
	}
	log.Component("dataset.summary").WithFields(logrus.Fields{
		"path":         path,
		"results":      len(rep.Results),
		"problem_rate": rep.Insight.ProblemRate,
	}).Info("batch report written")
	return rep, nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (BatchReport, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return BatchReport{}, fmt.Errorf("read report: %w", err)
	}
	var rep BatchReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return BatchReport{}, fmt.Errorf("decode report: %w", err)
	}
	return rep, nil
}
