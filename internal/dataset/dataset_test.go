package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"post-call-insights-go/internal/batch"
	"post-call-insights-go/internal/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCallIDsText(t *testing.T) {
	path := writeFile(t, "ids.txt", "fb96d81d-fef2\n\n# comment\n  c4739276-0207  \n")
	got, err := LoadCallIDs(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"fb96d81d-fef2", "c4739276-0207"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLoadCallIDsCSVHeader(t *testing.T) {
	path := writeFile(t, "calls.csv", "agent,Call ID,status\nbot,c-1,done\nbot,c-2\n")
	got, err := LoadCallIDs(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"c-1", "c-2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLoadCallIDsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{{"date", "id"}, {"2025-01-02", "c-1"}, {"2025-01-03", "c-2"}}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, err := LoadCallIDs(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"c-1", "c-2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLoadCallIDsEmpty(t *testing.T) {
	if _, err := LoadCallIDs(writeFile(t, "empty.txt", "")); err == nil {
		t.Fatal("expected an error for an empty file")
	}
}

func sampleResults() []batch.Result {
	ok := &types.DetailedAnalysis{
		CallID:          "b",
		ProblemDetected: true,
		ProblemType:     "patient_non_trouve",
		Statistics: types.CallStatistics{
			CallReason:         types.StrPtr("cancel_appointment"),
			FailureReasons:     []string{"patient_non_trouve", "erreur_tool"},
			FailureDescription: types.StrPtr("Patient introuvable."),
			CallTags:           []string{"nom", "prenom"},
		},
	}
	return []batch.Result{
		{Task: batch.Task{Seq: 1, CallID: "b", Model: "mock"}, Analysis: ok},
		{Task: batch.Task{Seq: 2, CallID: "a", Model: "mock"}, Error: "no data available"},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleResults())
	want := [][]string{
		{"a", "mock", "ERROR", "ERROR", "ERROR", "Exception: no data available", "ERROR", "ERROR"},
		{"b", "mock", "cancel_appointment", "", "patient_non_trouve; erreur_tool", "Patient introuvable.", "", "nom; prenom"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("got %q\nwant %q", rows, want)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResults()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != strings.Join(Columns, ",") {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := Export(path, sampleResults()); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{resultsSheet, summarySheet}) {
		t.Fatalf("sheets = %v", got)
	}
	v, err := f.GetCellValue(resultsSheet, "E3")
	if err != nil || v != "patient_non_trouve; erreur_tool" {
		t.Fatalf("E3 = %q, %v", v, err)
	}
	v, _ = f.GetCellValue(summarySheet, "B4")
	if v != "1" {
		t.Errorf("with-problem cell = %q", v)
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := Export(path, sampleResults()); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "call_id,model_used,") {
		t.Fatalf("unexpected csv: %s", b)
	}
}

func TestReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	rep, err := WriteReport(path, sampleResults(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Insight.WithProblem != 1 || rep.Insight.Errors != 1 || rep.Action.Share != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	got, err := ReadReport(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Results) != 2 || got.Results[0].Analysis == nil || got.Results[1].Error == "" {
		t.Fatalf("unexpected decoded results: %+v", got.Results)
	}
	if got.Results[0].Analysis.ProblemType != "patient_non_trouve" {
		t.Errorf("problem_type = %q", got.Results[0].Analysis.ProblemType)
	}
}
