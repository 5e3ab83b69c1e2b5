package importer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"audiogest/record"
)

// MaxFileSize is the upload limit for one delimited file.
const MaxFileSize = 10 << 20

const maxExcerptLength = 100

var allowedExtensions = map[string]bool{
	".csv": true,
	".txt": true,
	".tsv": true,
}

// RowError records one recovered row-level failure. Row errors never abort
// the file.
type RowError struct {
	Line    int    // 1-based position within the file's non-blank lines
	Message string
	Excerpt string // up to 100 characters of the offending line
}

// AggregateStats summarizes a record set. Stats are always recomputed from
// the full set, never patched incrementally.
type AggregateStats struct {
	Total      int
	Somme      float64        // montant sum for payments, quantity sum for stock
	ParType    map[string]int // settlement types for payments, categories for stock
	ParMagasin map[string]int
}

// ComputeStats derives aggregate statistics from a record set.
func ComputeStats(records []record.Normalized) AggregateStats {
	stats := AggregateStats{
		ParType:    make(map[string]int),
		ParMagasin: make(map[string]int),
	}
	for _, rec := range records {
		stats.Total++
		switch r := rec.(type) {
		case record.Payment:
			stats.Somme += r.Montant
			stats.ParType[r.TypeReglement]++
			if r.Magasin != "" {
				stats.ParMagasin[r.Magasin]++
			}
		case record.StockItem:
			stats.Somme += float64(r.Quantite)
			stats.ParType[r.Categorie]++
			if r.Magasin != "" {
				stats.ParMagasin[r.Magasin]++
			}
		}
	}
	return stats
}

// FileAnalysis is the per-file result of the single-file pipeline.
type FileAnalysis struct {
	FileName  string
	Separator rune
	Mapping   ColumnMapping
	Records   []record.Normalized
	Errors    []RowError
	Stats     AggregateStats
}

// ValidateFile rejects uploads outside the size and extension allow-list.
func ValidateFile(name string, size int64) error {
	if size == 0 {
		return fmt.Errorf("%w: empty file", ErrInvalidFile)
	}
	if size > MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrInvalidFile, size, MaxFileSize)
	}
	extension := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[extension] {
		return fmt.Errorf("%w: unsupported extension %q", ErrInvalidFile, extension)
	}
	return nil
}

// AnalyzeFile runs the whole single-file pipeline: validate, decode, locate
// the header row, map columns, parse every data row, and compute stats.
// File-level failures (bad file, no header, missing essential columns) abort
// the file and come back as a *FileError. Row-level failures are collected
// into the analysis and never abort processing.
func AnalyzeFile(name string, data []byte, mapper RowMapper) (*FileAnalysis, error) {
	if err := ValidateFile(name, int64(len(data))); err != nil {
		return nil, &FileError{File: name, Err: err}
	}

	lines := nonBlankLines(DecodeText(data))

	headerIndex, err := FindHeaderLine(lines, mapper)
	if err != nil {
		return nil, &FileError{File: name, Err: err}
	}
	separator := DetectSeparator(lines)
	mapping := MapColumns(lines[headerIndex], separator, mapper)
	if !mapper.EssentialOK(mapping) {
		return nil, &FileError{File: name, Err: ErrEssentialColumnsMissing}
	}

	analysis := &FileAnalysis{
		FileName:  name,
		Separator: separator,
		Mapping:   mapping,
		Records:   make([]record.Normalized, 0, len(lines)),
	}
	for i := headerIndex + 1; i < len(lines); i++ {
		line := lines[i]
		if IsFooterNoise(line) {
			continue
		}
		rec, ok, rowErr := parseLine(line, separator, mapping, mapper)
		if rowErr != nil {
			analysis.Errors = append(analysis.Errors, RowError{
				Line:    i + 1,
				Message: rowErr.Error(),
				Excerpt: excerpt(line),
			})
			continue
		}
		if !ok {
			continue
		}
		analysis.Records = append(analysis.Records, rec)
	}

	analysis.Stats = ComputeStats(analysis.Records)
	slog.Debug("file analyzed",
		"file", name,
		"records", len(analysis.Records),
		"rowErrors", len(analysis.Errors),
	)
	return analysis, nil
}

// AnalyzeFilePath reads a file from disk and analyzes it. The size check runs
// on the stat result so oversized files are rejected before being read.
func AnalyzeFilePath(path string, mapper RowMapper) (*FileAnalysis, error) {
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, &FileError{File: name, Err: fmt.Errorf("stat file: %w", err)}
	}
	if err := ValidateFile(name, info.Size()); err != nil {
		return nil, &FileError{File: name, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{File: name, Err: fmt.Errorf("read file: %w", err)}
	}
	return AnalyzeFile(name, data, mapper)
}

func parseLine(line string, separator rune, mapping ColumnMapping, mapper RowMapper) (record.Normalized, bool, error) {
	fields, err := SplitFields(line, separator)
	if err != nil {
		return nil, false, err
	}
	return mapper.MapRow(fields, mapping)
}

func nonBlankLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func excerpt(line string) string {
	runes := []rune(line)
	if len(runes) <= maxExcerptLength {
		return line
	}
	return string(runes[:maxExcerptLength])
}
