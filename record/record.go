package record

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Domain selects which record variant an import run produces.
type Domain string

const (
	DomainReglement Domain = "reglement"
	DomainStock     Domain = "stock"
)

// Collection returns the document-store collection backing the domain.
func (d Domain) Collection() string {
	if d == DomainStock {
		return "stock"
	}
	return "reglements"
}

// ReferencePrefix returns the prefix used for generated reference codes.
func (d Domain) ReferencePrefix() string {
	if d == DomainStock {
		return "STK"
	}
	return "REG"
}

// Normalized is one parsed row, ready for merge, dedup, and commit.
// Values are never mutated in place: every transform step builds a new value.
type Normalized interface {
	RecordDomain() Domain
	// DuplicateKey is the derived composite identity used to collapse
	// repeated rows across files. Two records with equal keys are duplicates;
	// the first occurrence in scan order wins.
	DuplicateKey() string
	// Ref is a short human-readable handle used in commit error reports.
	Ref() string
}

// Payment is a normalized règlement row.
type Payment struct {
	Date          string  `json:"date"`
	Client        string  `json:"client"`
	NomClient     string  `json:"nomClient"`
	PrenomClient  string  `json:"prenomClient"`
	Magasin       string  `json:"magasin"`
	TypeReglement string  `json:"typeReglement"`
	Montant       float64 `json:"montant"`
	NumeroClient  string  `json:"numeroClient"`
	NumeroSecu    string  `json:"numeroSecu"`
	NumeroCheque  string  `json:"numeroCheque"`
	TiersPayeur   string  `json:"tiersPayeur"`
}

func (p Payment) RecordDomain() Domain { return DomainReglement }

func (p Payment) DuplicateKey() string {
	return hashKey(p.Date, p.Client, strconv.FormatFloat(p.Montant, 'f', 2, 64), p.TypeReglement)
}

func (p Payment) Ref() string {
	return strings.TrimSpace(p.Client + " " + p.Date)
}

// StockItem is a normalized stock-produit row. An empty NumeroSerie means the
// item has no serialized identity and is tracked by libellé instead.
type StockItem struct {
	Date        string `json:"date"`
	Marque      string `json:"marque"`
	Libelle     string `json:"libelle"`
	NumeroSerie string `json:"numeroSerie"`
	Magasin     string `json:"magasin"`
	Statut      string `json:"statut"`
	Quantite    int    `json:"quantite"`
	Categorie   string `json:"categorie"`
	Client      string `json:"client"`
	Fournisseur string `json:"fournisseur"`
}

func (s StockItem) RecordDomain() Domain { return DomainStock }

func (s StockItem) DuplicateKey() string {
	if strings.TrimSpace(s.NumeroSerie) != "" {
		return hashKey("sn", s.NumeroSerie, s.Magasin)
	}
	return hashKey("lib", s.Libelle, s.Magasin)
}

func (s StockItem) Ref() string {
	if strings.TrimSpace(s.NumeroSerie) != "" {
		return strings.TrimSpace(s.NumeroSerie + " " + s.Magasin)
	}
	return strings.TrimSpace(s.Libelle + " " + s.Magasin)
}

// hashKey derives a compact content key from normalized field values. Only the
// equality partition it induces matters, not the byte value itself.
func hashKey(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, part := range parts {
		normalized[i] = strings.ToLower(strings.TrimSpace(part))
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

// Actor is the identity snapshot stamped on audit fields.
type Actor struct {
	ID     string `json:"id"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
}

// HistoryEntry is one historique line. The historique list is append-only:
// every mutation appends exactly one entry, none are reordered or removed.
type HistoryEntry struct {
	Date        time.Time `json:"date"`
	Action      string    `json:"action"`
	Details     string    `json:"details"`
	Utilisateur *Actor    `json:"utilisateur,omitempty"`
}

// Dates carries the creation/modification audit timestamps of a persisted
// record. Modification stays nil until the first edit.
type Dates struct {
	Creation     time.Time  `json:"creation"`
	Modification *time.Time `json:"modification"`
}

// Intervenants records who created and last modified a persisted record.
type Intervenants struct {
	CreePar    *Actor `json:"creePar"`
	ModifiePar *Actor `json:"modifiePar"`
}
