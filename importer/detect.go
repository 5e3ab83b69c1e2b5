package importer

import (
	"strings"

	"audiogest/internal/textnorm"
)

var separatorCandidates = []rune{';', ',', '\t', '|'}

const (
	separatorSampleSize = 5
	headerScanWindow    = 20
)

// DetectSeparator infers the field delimiter from the first five non-blank
// lines. A candidate appearing the same number of times on every sampled line
// beats one with a higher raw count but inconsistent per-line counts.
func DetectSeparator(lines []string) rune {
	sample := make([]string, 0, separatorSampleSize)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sample = append(sample, line)
		if len(sample) == separatorSampleSize {
			break
		}
	}
	if len(sample) == 0 {
		return ';'
	}

	best := ';'
	bestCount := 0
	bestConsistent := false
	for _, candidate := range separatorCandidates {
		first := strings.Count(sample[0], string(candidate))
		consistent := first > 0
		total := first
		for _, line := range sample[1:] {
			count := strings.Count(line, string(candidate))
			total += count
			if count != first {
				consistent = false
			}
		}
		perLine := total / len(sample)
		switch {
		case consistent && !bestConsistent:
			best, bestCount, bestConsistent = candidate, perLine, true
		case consistent == bestConsistent && perLine > bestCount:
			best, bestCount = candidate, perLine
		}
	}
	return best
}

// FindHeaderLine scans the first twenty lines for the row carrying the column
// headers, recognized by the mapper's identity and measure keywords. A miss
// is fatal for the whole file.
func FindHeaderLine(lines []string, mapper RowMapper) (int, error) {
	limit := len(lines)
	if limit > headerScanWindow {
		limit = headerScanWindow
	}
	for i := 0; i < limit; i++ {
		if mapper.IsHeaderLine(textnorm.Fold(lines[i])) {
			return i, nil
		}
	}
	return -1, ErrHeaderNotFound
}
