package importer

import (
	"fmt"
	"strings"

	"audiogest/internal/textnorm"
	"audiogest/record"
)

// RowMapper turns one split data line into a normalized record for its
// domain. It also owns the domain's header knowledge: which keywords identify
// the header row, which raw labels map to which canonical fields, and which
// canonical fields are the required minimum.
type RowMapper interface {
	Name() string
	Domain() record.Domain
	// IsHeaderLine reports whether a folded line looks like this domain's
	// column header row.
	IsHeaderLine(folded string) bool
	// Aliases lists header matching rules in priority order.
	Aliases() []AliasRule
	// EssentialOK reports whether the mapping carries the minimum required
	// columns for this domain.
	EssentialOK(mapping ColumnMapping) bool
	// MapRow builds a record from the split fields of one line. ok=false
	// drops the row silently (no error, no success); an error is recorded
	// against the line and parsing continues with the next row.
	MapRow(fields []string, mapping ColumnMapping) (record.Normalized, bool, error)
}

// SupportedMapperNames lists the selectable import domains.
func SupportedMapperNames() []string {
	return []string{"reglement", "stock"}
}

func MapperByName(name string) (RowMapper, error) {
	switch textnorm.FoldKey(name) {
	case "reglement", "reglements", "paiement":
		return &ReglementMapper{}, nil
	case "stock", "stockproduit", "produit":
		return &StockMapper{}, nil
	default:
		return nil, fmt.Errorf("unsupported import domain: %s", name)
	}
}

func containsAny(folded string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(folded, keyword) {
			return true
		}
	}
	return false
}
