package importer

import (
	"fmt"
	"strings"

	"audiogest/record"
)

// StockMapper normalizes stock-produit rows.
type StockMapper struct{}

func (m *StockMapper) Name() string { return "stock" }

func (m *StockMapper) Domain() record.Domain { return record.DomainStock }

var stockMeasureKeywords = []string{"date", "quantite", "qte", "statut"}

// Stock headers are recognized by marque+libellé appearing together, or by a
// serial-number column, alongside a measure keyword.
func (m *StockMapper) IsHeaderLine(folded string) bool {
	identity := (strings.Contains(folded, "marque") && strings.Contains(folded, "libel")) ||
		strings.Contains(folded, "serie")
	return identity && containsAny(folded, stockMeasureKeywords)
}

func (m *StockMapper) Aliases() []AliasRule {
	return []AliasRule{
		{Canonical: "date", Contains: []string{"date"}, Excludes: []string{"modif"}},
		{Canonical: "numeroSerie", Aliases: []string{"sn"}, Contains: []string{"serie"}},
		{Canonical: "marque", Aliases: []string{"marque", "fabricant"}},
		{Canonical: "libelle", Aliases: []string{"designation", "produit", "article", "modele"}, Contains: []string{"libel"}},
		{Canonical: "magasin", Aliases: []string{"magasin", "centre", "lieu", "site"}},
		{Canonical: "statut", Aliases: []string{"etat"}, Contains: []string{"statut"}},
		{Canonical: "quantite", Aliases: []string{"qte", "stock"}, Contains: []string{"quantit"}},
		{Canonical: "fournisseur", Contains: []string{"fourniss"}},
		{Canonical: "client", Contains: []string{"client"}, Excludes: []string{"n°", "num", "code"}},
	}
}

// Stock requires a date column alongside a libellé or serial column.
func (m *StockMapper) EssentialOK(mapping ColumnMapping) bool {
	return mapping.Has("date") && (mapping.Has("libelle") || mapping.Has("numeroSerie"))
}

func (m *StockMapper) MapRow(fields []string, mapping ColumnMapping) (record.Normalized, bool, error) {
	if len(fields) == 1 && mapping.Span() > 1 {
		return nil, false, fmt.Errorf("column count mismatch: got 1 field, header maps %d columns", mapping.Span())
	}

	libelle := fieldAt(fields, mapping, "libelle")
	serial := fieldAt(fields, mapping, "numeroSerie")
	if libelle == "" && serial == "" {
		// No identity, dropped silently.
		return nil, false, nil
	}

	item := record.StockItem{
		Date:        ParseDateStock(fieldAt(fields, mapping, "date")),
		Marque:      fieldAt(fields, mapping, "marque"),
		Libelle:     libelle,
		NumeroSerie: serial,
		Magasin:     fieldAt(fields, mapping, "magasin"),
		Statut:      CanonicalStatut(fieldAt(fields, mapping, "statut")),
		Quantite:    ParseQuantite(fieldAt(fields, mapping, "quantite")),
		Categorie:   DetectCategory(libelle),
		Client:      fieldAt(fields, mapping, "client"),
		Fournisseur: fieldAt(fields, mapping, "fournisseur"),
	}
	return item, true, nil
}
