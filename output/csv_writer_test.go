package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"audiogest/record"
	"audiogest/storage"
)

func TestCSVWriter_Reglement(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reglements.csv")
	writer := &CSVWriter{Domain: record.DomainReglement}

	documents := []storage.Document{
		{ID: "doc-1", Fields: map[string]any{
			"reference":     "REG-202603-A1B2",
			"date":          "2026-03-15",
			"client":        "MARTIN Jean",
			"magasin":       "A01",
			"typeReglement": "CB",
			"montant":       150.5,
			"statut":        "NOUVEAU",
		}},
		{ID: "doc-2", Fields: map[string]any{
			"reference": "REG-202603-C3D4",
			"client":    "DUPONT Marie",
			"montant":   float64(200),
		}},
	}

	if err := writer.Write(path, documents); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "reference" || rows[0][5] != "montant" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][2] != "MARTIN Jean" || rows[1][5] != "150.50" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	// Whole-number amounts render without decimals, missing fields as blanks.
	if rows[2][5] != "200" || rows[2][1] != "" {
		t.Fatalf("unexpected second row: %v", rows[2])
	}
}

func TestWriterForFormat(t *testing.T) {
	t.Parallel()

	if _, err := WriterForFormat("csv", record.DomainReglement); err != nil {
		t.Fatalf("csv must be supported: %v", err)
	}
	if _, err := WriterForFormat("Excel", record.DomainStock); err != nil {
		t.Fatalf("excel must be supported: %v", err)
	}
	if _, err := WriterForFormat("xlsx", record.DomainStock); err != nil {
		t.Fatalf("xlsx must be supported: %v", err)
	}
	if _, err := WriterForFormat("pdf", record.DomainStock); err == nil {
		t.Fatalf("expected an error for an unsupported format")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}
