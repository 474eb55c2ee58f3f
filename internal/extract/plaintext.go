package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// PlainText reads .txt files verbatim.
type PlainText struct{}

// NewPlainText creates the plain-text extractor.
func NewPlainText() *PlainText { return &PlainText{} }

// Extract reads the whole file as UTF-8 text.
func (p *PlainText) Extract(_ context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	return &Result{Text: string(data)}, nil
}

// CSV flattens .csv files into whitespace-joined cell text, one row per line.
type CSV struct{}

// NewCSV creates the CSV extractor.
func NewCSV() *CSV { return &CSV{} }

// Extract parses the CSV and joins non-empty cells with single spaces.
func (c *CSV) Extract(_ context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are common in exports

	var lines []string
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	for _, row := range rows {
		var cells []string
		for _, cell := range row {
			if trimmed := strings.TrimSpace(cell); trimmed != "" {
				cells = append(cells, trimmed)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " "))
		}
	}
	return &Result{Text: strings.Join(lines, "\n")}, nil
}
