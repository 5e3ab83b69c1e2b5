package output

import (
	"fmt"
	"strconv"
	"strings"

	"audiogest/record"
	"audiogest/storage"
)

// Writer renders persisted documents of one domain to a listing file.
type Writer interface {
	Write(path string, documents []storage.Document) error
}

func WriterForFormat(format string, domain record.Domain) (Writer, error) {
	switch strings.TrimSpace(strings.ToLower(format)) {
	case "csv":
		return &CSVWriter{Domain: domain}, nil
	case "excel", "xlsx":
		return &ExcelWriter{Domain: domain}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func columnsFor(domain record.Domain) []string {
	if domain == record.DomainStock {
		return []string{"reference", "date", "marque", "libelle", "numeroSerie", "magasin", "statut", "quantite", "categorie", "client"}
	}
	return []string{"reference", "date", "client", "magasin", "typeReglement", "montant", "statut"}
}

// cellValue renders one document field as text.
func cellValue(fields map[string]any, column string) string {
	value, ok := fields[column]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
