package importer

import (
	"fmt"
	"sync"

	"audiogest/record"
)

// DefaultMaxFiles caps how many files one merge batch may hold.
const DefaultMaxFiles = 10

// FileInput is one uploaded file queued for analysis.
type FileInput struct {
	Name string
	Data []byte
}

// FileOutcome captures one file's analysis result. A failed file never
// affects its siblings in the batch.
type FileOutcome struct {
	Name     string
	Analysis *FileAnalysis
	Err      error
}

// DuplicateEntry reports a record excluded from the merged set because an
// earlier record carries the same duplicate key. Indexes refer to positions
// in the concatenated scan order (file submission order, then line order).
type DuplicateEntry struct {
	Key            string
	OriginalIndex  int
	DuplicateIndex int
	File           string
	Record         record.Normalized
}

// MergeResult is the outcome of analyzing and deduplicating a batch of files.
type MergeResult struct {
	PerFile    []FileOutcome
	Records    []record.Normalized // unique records in scan order
	Duplicates []DuplicateEntry
	Stats      AggregateStats // computed over the unique set only
}

// Merge analyzes every input concurrently and partitions the concatenated
// records into uniques and duplicates. Analyses settle independently: one
// file's failure neither cancels nor fails the others. The concatenation for
// dedup always follows file submission order then line order — never
// completion order — so the partition is deterministic.
//
// heldCount counts analyses the caller already retains from earlier batches;
// held plus new files may not exceed maxFiles, checked before any file is
// read.
func Merge(inputs []FileInput, mapper RowMapper, heldCount, maxFiles int) (*MergeResult, error) {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	if heldCount+len(inputs) > maxFiles {
		return nil, fmt.Errorf("%w: %d held + %d submitted exceeds the limit of %d",
			ErrTooManyFiles, heldCount, len(inputs), maxFiles)
	}

	outcomes := make([]FileOutcome, len(inputs))
	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input FileInput) {
			defer wg.Done()
			analysis, err := AnalyzeFile(input.Name, input.Data, mapper)
			outcomes[i] = FileOutcome{Name: input.Name, Analysis: analysis, Err: err}
		}(i, input)
	}
	wg.Wait()

	analyses := make([]*FileAnalysis, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Err == nil {
			analyses = append(analyses, outcome.Analysis)
		}
	}

	result := MergeAnalyses(analyses)
	result.PerFile = outcomes
	return result, nil
}

// MergeAnalyses recomputes the full merge from retained analyses, e.g. after
// the caller dropped one file from the batch. Dedup and stats are derived
// from scratch on every call, never patched from a previous result.
func MergeAnalyses(analyses []*FileAnalysis) *MergeResult {
	result := &MergeResult{
		Records:    make([]record.Normalized, 0, 256),
		Duplicates: make([]DuplicateEntry, 0),
	}

	firstSeen := make(map[string]int)
	scanIndex := 0
	for _, analysis := range analyses {
		for _, rec := range analysis.Records {
			key := rec.DuplicateKey()
			if original, seen := firstSeen[key]; seen {
				result.Duplicates = append(result.Duplicates, DuplicateEntry{
					Key:            key,
					OriginalIndex:  original,
					DuplicateIndex: scanIndex,
					File:           analysis.FileName,
					Record:         rec,
				})
			} else {
				firstSeen[key] = scanIndex
				result.Records = append(result.Records, rec)
			}
			scanIndex++
		}
	}

	result.Stats = ComputeStats(result.Records)
	return result
}
