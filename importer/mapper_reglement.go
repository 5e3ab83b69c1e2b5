package importer

import (
	"fmt"
	"strings"

	"audiogest/record"
)

// ReglementMapper normalizes payment ("règlement") rows.
type ReglementMapper struct{}

func (m *ReglementMapper) Name() string { return "reglement" }

func (m *ReglementMapper) Domain() record.Domain { return record.DomainReglement }

var (
	reglementIdentityKeywords = []string{"client", "facture", "patient"}
	reglementMeasureKeywords  = []string{"montant", "date", "reglement"}
)

func (m *ReglementMapper) IsHeaderLine(folded string) bool {
	return containsAny(folded, reglementIdentityKeywords) &&
		containsAny(folded, reglementMeasureKeywords)
}

// Alias fragments are compared against folded, separator-free header tokens.
// numeroClient must come before client so "N° client" is not swallowed by the
// client rule.
func (m *ReglementMapper) Aliases() []AliasRule {
	return []AliasRule{
		{Canonical: "date", Contains: []string{"date"}, Excludes: []string{"modif"}},
		{Canonical: "numeroClient", Aliases: []string{"codeclient"}, Contains: []string{"n°client", "numclient", "numeroclient"}},
		{Canonical: "numeroSecu", Aliases: []string{"nir", "n°ss"}, Contains: []string{"secu"}},
		{Canonical: "numeroCheque", Contains: []string{"cheque"}},
		{Canonical: "tiersPayeur", Contains: []string{"tiers", "payeur", "mutuelle"}},
		{Canonical: "client", Aliases: []string{"patient", "beneficiaire", "assure"}, Contains: []string{"client"}},
		{Canonical: "magasin", Aliases: []string{"magasin", "centre", "lieu", "site"}},
		{Canonical: "typeReglement", Aliases: []string{"type"}, Contains: []string{"typereglement", "typepaiement", "mode"}},
		{Canonical: "montant", Aliases: []string{"somme", "credit"}, Contains: []string{"montant"}},
	}
}

// Payments require date, client, and montant columns.
func (m *ReglementMapper) EssentialOK(mapping ColumnMapping) bool {
	return mapping.Has("date") && mapping.Has("client") && mapping.Has("montant")
}

func (m *ReglementMapper) MapRow(fields []string, mapping ColumnMapping) (record.Normalized, bool, error) {
	if len(fields) == 1 && mapping.Span() > 1 {
		return nil, false, fmt.Errorf("column count mismatch: got 1 field, header maps %d columns", mapping.Span())
	}

	client := fieldAt(fields, mapping, "client")
	if client == "" {
		// Identity-less rows are dropped silently: not an error, not a success.
		return nil, false, nil
	}

	nom, prenom := SplitClientName(client)
	payment := record.Payment{
		Date:          ParseDateReglement(fieldAt(fields, mapping, "date")),
		Client:        strings.Join(strings.Fields(client), " "),
		NomClient:     nom,
		PrenomClient:  prenom,
		Magasin:       fieldAt(fields, mapping, "magasin"),
		TypeReglement: CanonicalTypeCode(fieldAt(fields, mapping, "typeReglement")),
		Montant:       ParseMontant(fieldAt(fields, mapping, "montant")),
		NumeroClient:  fieldAt(fields, mapping, "numeroClient"),
		NumeroSecu:    fieldAt(fields, mapping, "numeroSecu"),
		NumeroCheque:  fieldAt(fields, mapping, "numeroCheque"),
		TiersPayeur:   fieldAt(fields, mapping, "tiersPayeur"),
	}
	return payment, true, nil
}
