package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases the input and strips diacritics so header and keyword
// comparisons work across accented and unaccented spellings
// ("Libellé" and "libelle" compare equal).
func Fold(input string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, input)
	if err != nil {
		folded = input
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// FoldKey folds the input and removes separators, producing a comparison key
// in the same shape for "Numéro de série", "numero_serie", and "NumeroSerie".
func FoldKey(input string) string {
	folded := Fold(input)
	folded = strings.ReplaceAll(folded, "_", "")
	folded = strings.ReplaceAll(folded, "-", "")
	folded = strings.ReplaceAll(folded, " ", "")
	return folded
}
