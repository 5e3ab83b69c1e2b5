package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"audiogest/record"
	"audiogest/storage"
)

type CSVWriter struct {
	Domain record.Domain
}

func (w *CSVWriter) Write(path string, documents []storage.Document) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = ';'
	defer writer.Flush()

	columns := columnsFor(w.Domain)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, document := range documents {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = cellValue(document.Fields, column)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}

	return nil
}
