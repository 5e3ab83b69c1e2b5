package importer

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"audiogest/internal/textnorm"
)

// AliasRule matches raw header labels against one canonical field name.
// Aliases compare exactly after folding; Contains match as substrings;
// Excludes veto a Contains match.
type AliasRule struct {
	Canonical string
	Aliases   []string
	Contains  []string
	Excludes  []string
}

func (r AliasRule) matches(header string) bool {
	for _, exclude := range r.Excludes {
		if strings.Contains(header, exclude) {
			return false
		}
	}
	for _, alias := range r.Aliases {
		if header == textnorm.FoldKey(alias) {
			return true
		}
	}
	for _, fragment := range r.Contains {
		if strings.Contains(header, fragment) {
			return true
		}
	}
	return false
}

// ColumnMapping maps zero-based column indexes to canonical field names.
// Built once per file from its header row and reused for every data row.
type ColumnMapping struct {
	Fields map[int]string
}

// Has reports whether any column mapped to the canonical field.
func (m ColumnMapping) Has(canonical string) bool {
	for _, name := range m.Fields {
		if name == canonical {
			return true
		}
	}
	return false
}

// Index returns the column index mapped to the canonical field, or -1.
func (m ColumnMapping) Index(canonical string) int {
	for index, name := range m.Fields {
		if name == canonical {
			return index
		}
	}
	return -1
}

// Found lists the canonical fields located in the header, in column order.
func (m ColumnMapping) Found() []string {
	indexes := make([]int, 0, len(m.Fields))
	for index := range m.Fields {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	found := make([]string, 0, len(indexes))
	for _, index := range indexes {
		found = append(found, m.Fields[index])
	}
	return found
}

// Span returns the highest mapped column index plus one.
func (m ColumnMapping) Span() int {
	span := 0
	for index := range m.Fields {
		if index+1 > span {
			span = index + 1
		}
	}
	return span
}

// MapColumns builds the column mapping for one file from its header line.
// Each header token is cleaned (quotes, BOM, spacing, diacritics) and checked
// against the mapper's alias rules in priority order; the first matching rule
// wins and later columns never displace an already-mapped canonical field.
// Headers matching no rule are ignored: their columns are simply never read.
// Canonical fields still missing after the alias pass get one conservative
// fuzzy retry against the exact aliases.
func MapColumns(headerLine string, separator rune, mapper RowMapper) ColumnMapping {
	tokens, err := SplitFields(headerLine, separator)
	if err != nil {
		tokens = strings.Split(headerLine, string(separator))
	}

	cleaned := make([]string, len(tokens))
	for i, token := range tokens {
		cleaned[i] = cleanHeaderToken(token)
	}

	mapping := ColumnMapping{Fields: make(map[int]string, len(cleaned))}
	rules := mapper.Aliases()
	for i, header := range cleaned {
		if header == "" {
			continue
		}
		for _, rule := range rules {
			if mapping.Has(rule.Canonical) {
				continue
			}
			if rule.matches(header) {
				mapping.Fields[i] = rule.Canonical
				break
			}
		}
	}

	for _, rule := range rules {
		if mapping.Has(rule.Canonical) {
			continue
		}
		for i, header := range cleaned {
			if _, taken := mapping.Fields[i]; taken || header == "" {
				continue
			}
			if fuzzyMatchesAlias(header, rule.Aliases) {
				mapping.Fields[i] = rule.Canonical
				break
			}
		}
	}

	return mapping
}

// fuzzyMatchesAlias tolerates a single-character slip in a header label
// ("mntant" still maps to montant). Short labels are left alone: one edit on
// a three-letter header is a different word, not a typo.
func fuzzyMatchesAlias(header string, aliases []string) bool {
	if len(header) < 4 {
		return false
	}
	for _, alias := range aliases {
		folded := textnorm.FoldKey(alias)
		if len(folded) < 4 {
			continue
		}
		if fuzzy.LevenshteinDistance(header, folded) <= 1 {
			return true
		}
	}
	return false
}

func cleanHeaderToken(token string) string {
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, "\uFEFF")
	token = strings.Trim(token, `"'`)
	return textnorm.FoldKey(token)
}
