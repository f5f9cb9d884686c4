package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadCallIDs reads call ids from a spreadsheet (.xlsx), a .csv file or a
// plain text file with one id per line. For tabular files the id column is
// found by header; without a recognizable header the first column is used
// and the first row is kept as data.
func LoadCallIDs(path string) ([]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readSheet(path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		rows, err = readLines(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	col, skipHeader := callIDColumn(rows[0])
	var out []string
	for i, r := range rows {
		if i == 0 && skipHeader {
			continue
		}
		if col >= len(r) {
			continue
		}
		if id := strings.TrimSpace(r[col]); id != "" && !strings.HasPrefix(id, "#") {
			out = append(out, id)
		}
	}
	return out, nil
}

// callIDColumn picks the column holding call ids from a header row.
func callIDColumn(header []string) (col int, isHeader bool) {
	fallback := -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case l == "call_id" || l == "callid" || strings.Contains(l, "call id"):
			return i, true
		case l == "id" || strings.HasSuffix(l, "_id") || strings.HasSuffix(l, " id"):
			if fallback == -1 {
				fallback = i
			}
		}
	}
	if fallback >= 0 {
		return fallback, true
	}
	return 0, false
}

func readSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func readLines(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	var rows [][]string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		rows = append(rows, []string{sc.Text()})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return rows, nil
}
