package bank

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Columns lists the spreadsheet headers in template order. Columns are
// matched by header name, case-insensitively. Topics are separated by
// commas; options and hints by "|".
var Columns = []string{"id", "title", "body", "type", "difficulty", "score", "category", "topics", "options", "answer", "hints"}

// ReadXLSX reads items from the first sheet of the workbook at path. The
// first row is the header. Rows whose cells are all empty are skipped; the
// returned row numbers are 1-based spreadsheet rows.
func ReadXLSX(path string) ([]Record, []int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	index := make(map[string]int)
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"body", "type", "difficulty", "topics", "answer"} {
		if _, ok := index[required]; !ok {
			return nil, nil, fmt.Errorf("sheet %s: missing %q column", sheets[0], required)
		}
	}

	var (
		records []Record
		lines   []int
	)
	for n, row := range rows[1:] {
		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if blank(row) {
			continue
		}

		rec := Record{
			ID:         cell("id"),
			Title:      cell("title"),
			Body:       cell("body"),
			Type:       cell("type"),
			Difficulty: cell("difficulty"),
			Category:   cell("category"),
			Topics:     split(cell("topics"), ","),
			Options:    split(cell("options"), "|"),
			Hints:      split(cell("hints"), "|"),
		}
		if a := cell("answer"); a != "" {
			rec.Answer = a
		}
		if s := cell("score"); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: score %q: %w", n+2, s, err)
			}
			rec.Score = &v
		}
		records = append(records, rec)
		lines = append(lines, n+2)
	}
	return records, lines, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func split(s, sep string) []string {
	if s == "" {
		return nil
	}
	return trimAll(strings.Split(s, sep))
}

// WriteTemplate writes an empty workbook with the header row and one
// example item to path.
func WriteTemplate(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	example := []any{
		"", "Loop count", "How many times does for i in range(1, 5) run?",
		"fill-blank", "easy", "", "practice", "loops", "", "4", "range stops before its end",
	}
	if err := f.SetSheetRow(sheet, "A2", &example); err != nil {
		return fmt.Errorf("write example: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
