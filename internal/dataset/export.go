package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"post-call-insights-go/internal/actionable"
	"post-call-insights-go/internal/aggregator"
	"post-call-insights-go/internal/batch"
)

// Columns is the header of the results export.
var Columns = []string{
	"call_id",
	"model_used",
	"call_reason",
	"user_sentiment",
	"failure_reasons",
	"failure_description",
	"user_questions",
	"call_tags",
}

const (
	resultsSheet = "Analyses"
	summarySheet = "Synthèse"
	errorCell    = "ERROR"
)

// Rows flattens results into export rows, sorted by call id then model.
// List fields are joined with "; " and failed rows carry ERROR markers.
func Rows(results []batch.Result) [][]string {
	sorted := make([]batch.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CallID != sorted[j].CallID {
			return sorted[i].CallID < sorted[j].CallID
		}
		return sorted[i].Model < sorted[j].Model
	})

	rows := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, row(r))
	}
	return rows
}

func row(r batch.Result) []string {
	if !r.OK() {
		return []string{r.CallID, r.Model, errorCell, errorCell, errorCell, "Exception: " + r.Error, errorCell, errorCell}
	}
	s := r.Analysis.Statistics
	return []string{
		r.CallID,
		r.Model,
		deref(s.CallReason),
		deref(s.UserSentiment),
		strings.Join(s.FailureReasons, "; "),
		deref(s.FailureDescription),
		deref(s.UserQuestions),
		strings.Join(s.CallTags, "; "),
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// WriteCSV writes the header and Rows(results) to w.
func WriteCSV(w io.Writer, results []batch.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(Rows(results)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes the results sheet and a summary sheet built from the
// batch insight and action card.
func WriteXLSX(path string, results []batch.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return err
	}
	if err := setRow(f, resultsSheet, 1, Columns); err != nil {
		return err
	}
	for i, r := range Rows(results) {
		if err := setRow(f, resultsSheet, i+2, r); err != nil {
			return err
		}
	}
	if err := f.SetPanes(resultsSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}
	if err := f.AutoFilter(resultsSheet, fmt.Sprintf("A1:H%d", len(results)+1), nil); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	for i, line := range summaryLines(aggregator.Aggregate(results)) {
		if err := setRow(f, summarySheet, i+1, line); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func summaryLines(ins aggregator.Insight) [][]any {
	card := actionable.Generate(ins)
	lines := [][]any{
		{"Appels", ins.TotalCalls},
		{"Analysés", ins.Analyzed},
		{"Erreurs", ins.Errors},
		{"Avec problème", ins.WithProblem},
		{"Sans problème", ins.WithoutProblem},
		{"Taux de problèmes", fmt.Sprintf("%.1f%%", ins.ProblemRate*100)},
		{},
		{"Constat", card.Insight},
		{"Action", card.Action},
		{"Impact", card.Impact},
		{},
		{"failure_reason", "count"},
	}
	for _, c := range aggregator.Top(ins.FailureCounts, 0) {
		lines = append(lines, []any{c.Key, c.Count})
	}
	lines = append(lines, []any{}, []any{"call_reason", "count"})
	for _, c := range aggregator.Top(ins.CallReasonCounts, 0) {
		lines = append(lines, []any{c.Key, c.Count})
	}
	return lines
}

func setRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// Export writes results to path, as a workbook for .xlsx and CSV otherwise.
func Export(path string, results []batch.Result) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return WriteXLSX(path, results)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
