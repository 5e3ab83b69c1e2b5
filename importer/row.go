package importer

import (
	"fmt"
	"strings"
)

// SplitFields splits one delimited line, honoring quoted segments: a
// separator inside quotes is not a split point and a doubled quote inside a
// quoted field is an escaped literal quote.
func SplitFields(line string, separator rune) ([]string, error) {
	fields := make([]string, 0, 16)
	var field strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case r == separator && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quoted field")
	}
	fields = append(fields, field.String())
	return fields, nil
}

var footerMarkers = []string{"total", "page", "fin"}

// IsFooterNoise reports whether a line is trailing noise (totals, pagination,
// end-of-file markers) rather than a data row.
func IsFooterNoise(line string) bool {
	folded := strings.ToLower(line)
	for _, marker := range footerMarkers {
		if strings.Contains(folded, marker) {
			return true
		}
	}
	return false
}

// fieldAt returns the trimmed value of the column mapped to the canonical
// field, or "" when the column is unmapped or the row is short.
func fieldAt(fields []string, mapping ColumnMapping, canonical string) string {
	index := mapping.Index(canonical)
	if index < 0 || index >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[index])
}
