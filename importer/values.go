package importer

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"audiogest/internal/textnorm"
	"audiogest/record"
)

// Value transforms are total: they never fail and every one has a defined
// fallback. Unparseable values degrade to the domain default instead of
// producing a row error.

var (
	dmyPattern = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4}|\d{2})$`)
	isoPattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
)

// StockDateSentinel marks a stock row whose date could not be parsed.
const StockDateSentinel = "-"

func parseDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if m := isoPattern.FindStringSubmatch(raw); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if validDayMonth(day, month) {
			return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
		}
		return "", false
	}
	if m := dmyPattern.FindStringSubmatch(raw); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		yearText := m[3]
		if len(yearText) == 2 {
			yearText = "20" + yearText
		}
		year, _ := strconv.Atoi(yearText)
		if validDayMonth(day, month) {
			return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
		}
	}
	return "", false
}

func validDayMonth(day, month int) bool {
	return day >= 1 && day <= 31 && month >= 1 && month <= 12
}

// ParseDateReglement parses D/M/Y, D-M-Y, D.M.Y (two- or four-digit year) or
// an already-ISO date into YYYY-MM-DD. Unparseable input falls back to
// today's date.
func ParseDateReglement(raw string) string {
	if iso, ok := parseDate(raw); ok {
		return iso
	}
	return time.Now().Format("2006-01-02")
}

// ParseDateStock is ParseDateReglement with the stock fallback: unparseable
// input yields the "-" sentinel. The asymmetry with payments is deliberate
// domain behavior and must stay per-domain.
func ParseDateStock(raw string) string {
	if iso, ok := parseDate(raw); ok {
		return iso
	}
	return StockDateSentinel
}

var amountCleaner = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	"€", "",
	"EUR", "",
	"eur", "",
)

// ParseMontant parses a French-formatted amount. A comma is the decimal
// separator and any dot next to it is a thousands separator; the result may
// be negative. Non-numeric input yields 0.
func ParseMontant(raw string) float64 {
	cleaned := amountCleaner.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0
	}
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// ParseQuantite parses an integer quantity. A parenthesized value is
// negative (accounting style); non-numeric input yields 0.
func ParseQuantite(raw string) int {
	cleaned := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") && len(cleaned) > 2 {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	quantity := int(ParseMontant(cleaned))
	if negative && quantity > 0 {
		quantity = -quantity
	}
	return quantity
}

// typeCodes maps supplier settlement codes to canonical payment types.
var typeCodes = map[string]string{
	"CB":              "CB",
	"CARTE":           "CB",
	"CARTE BANCAIRE":  "CB",
	"ESP":             "ESPECES",
	"ESPECES":         "ESPECES",
	"LIQ":             "ESPECES",
	"CHQ":             "CHEQUE",
	"CHQ-DIFF":        "CHEQUE",
	"CHQD":            "CHEQUE",
	"CHEQUE":          "CHEQUE",
	"VIR":             "VIREMENT",
	"VIRT":            "VIREMENT",
	"VIREMENT":        "VIREMENT",
	"PRLV":            "PRELEVEMENT",
	"PREL":            "PRELEVEMENT",
	"PRELEVEMENT":     "PRELEVEMENT",
	"TPSC":            "TP_SECU",
	"TPSV":            "TP_SECU",
	"TP SECU":         "TP_SECU",
	"TPMC":            "TP_MUTUELLE",
	"TPMV":            "TP_MUTUELLE",
	"TP MUT":          "TP_MUTUELLE",
	"COF12":           "COFIDIS",
	"COF24":           "COFIDIS",
	"COF36":           "COFIDIS",
	"COF48":           "COFIDIS",
	"WW":              "COFIDIS",
	"FRANF":           "FRANFINANCE",
	"FRANFINANCE":     "FRANFINANCE",
	"AGEFIPH":         "AGEFIPH",
	"AVOIR":           "AVOIR",
	"RBT":             "REMBOURSEMENT",
	"REMB":            "REMBOURSEMENT",
}

// CanonicalTypeCode maps a raw settlement code to its canonical payment type.
// MDPH codes carry a département suffix and match by prefix. Unrecognized
// codes are logged and fall back to AUTRE; they are never a row error.
func CanonicalTypeCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "AUTRE"
	}
	if canonical, ok := typeCodes[code]; ok {
		return canonical
	}
	if strings.HasPrefix(code, "MDPH") {
		return "MDPH"
	}
	slog.Debug("unrecognized settlement type code", "code", code)
	return "AUTRE"
}

// statutAliases maps raw stock status labels to workflow codes.
var statutAliases = map[string]string{
	"en stock":       record.StatutEnStock,
	"stock":          record.StatutEnStock,
	"disponible":     record.StatutEnStock,
	"commande":       record.StatutEnCommande,
	"en commande":    record.StatutEnCommande,
	"recu":           record.StatutRecu,
	"reception":      record.StatutRecu,
	"reserve":        record.StatutReserve,
	"essai":          record.StatutEnEssai,
	"en essai":       record.StatutEnEssai,
	"essai prolonge": record.StatutEssaiProlonge,
	"pret":           record.StatutPret,
	"vendu":          record.StatutVendu,
	"vente":          record.StatutVendu,
	"facture":        record.StatutFacture,
	"retour":         record.StatutRetourne,
	"retourne":       record.StatutRetourne,
	"sav":            record.StatutSAV,
	"reparation":     record.StatutSAV,
	"perdu":          record.StatutPerdu,
	"detruit":        record.StatutDetruit,
	"rebut":          record.StatutDetruit,
}

// CanonicalStatut maps a raw stock status label to one of the workflow
// codes, defaulting to EN_STOCK.
func CanonicalStatut(raw string) string {
	folded := textnorm.Fold(raw)
	if folded == "" {
		return record.StatutEnStock
	}
	if canonical, ok := statutAliases[folded]; ok {
		return canonical
	}
	for _, code := range record.StockStatuts {
		if strings.EqualFold(strings.ReplaceAll(folded, " ", "_"), code) {
			return code
		}
	}
	slog.Debug("unrecognized stock status", "statut", raw)
	return record.StatutEnStock
}

// SplitClientName splits a combined client name on the first space:
// the first token is the family name, the remainder the given name.
// Single-token names leave the given name empty.
func SplitClientName(full string) (nom, prenom string) {
	full = strings.Join(strings.Fields(full), " ")
	index := strings.Index(full, " ")
	if index < 0 {
		return full, ""
	}
	return full[:index], full[index+1:]
}

type categoryRule struct {
	name    string
	pattern *regexp.Regexp
}

// categoryRules classify a stock libellé; first match wins.
var categoryRules = []categoryRule{
	{"appareil", regexp.MustCompile(`audeo|naida|virto|phonak|oticon|signia|starkey|resound|widex|bernafon|intra|contour|\bbte\b|\bric\b|\bite\b|appareil|aide auditive`)},
	{"pile", regexp.MustCompile(`pile|batterie|accu|\b(10|13|312|675)\b`)},
	{"entretien", regexp.MustCompile(`spray|lingette|pastille|sech|nettoy|entretien|deshumidif`)},
	{"embout", regexp.MustCompile(`embout|dome|canule|tube|coude`)},
	{"accessoire", regexp.MustCompile(`chargeur|telecommande|tv connector|roger|micro|cordon|etui|accessoire`)},
	{"protection", regexp.MustCompile(`protection|anti.?bruit|bouchon|obturateur|pianissimo`)},
}

// DetectCategory matches a stock libellé against the category rules in
// order; no match yields "autre".
func DetectCategory(libelle string) string {
	folded := textnorm.Fold(libelle)
	for _, rule := range categoryRules {
		if rule.pattern.MatchString(folded) {
			return rule.name
		}
	}
	return "autre"
}
