package storage

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"audiogest/record"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "=="
	OpGte Op = ">="
	OpLte Op = "<="
)

// Filter constrains one scalar field.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query selects documents within a collection.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Document is one stored record with its backend identifier.
type Document struct {
	ID     string
	Fields map[string]any
}

// ErrNotFound is returned when a document id does not exist in a collection.
var ErrNotFound = errors.New("document not found")

// DocumentStore is the persistence collaborator of the import pipeline. It
// behaves like a generic document database: documents are grouped into
// collections, filters support equality and range comparison on scalar
// fields, and the historique array supports an append primitive.
type DocumentStore interface {
	Create(ctx context.Context, collection string, doc map[string]any) (string, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Find(ctx context.Context, collection string, query Query) ([]Document, error)
	// Update merges partial fields into a document. Keys may be dotted paths
	// ("dates.modification") addressing nested objects.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// AppendHistory appends exactly one entry to the document's historique
	// array. Entries are never reordered or removed.
	AppendHistory(ctx context.Context, collection, id string, entry record.HistoryEntry) error
	Delete(ctx context.Context, collection, id string) error
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

func validFieldName(name string) bool {
	return fieldNamePattern.MatchString(name)
}

// applyFields merges partial fields into a document body, creating nested
// objects along dotted paths as needed.
func applyFields(doc map[string]any, fields map[string]any) {
	for key, value := range fields {
		parts := strings.Split(key, ".")
		target := doc
		for _, part := range parts[:len(parts)-1] {
			next, ok := target[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				target[part] = next
			}
			target = next
		}
		target[parts[len(parts)-1]] = value
	}
}

// historyList coerces the stored historique value into an appendable slice.
func historyList(value any) []any {
	list, ok := value.([]any)
	if !ok {
		return []any{}
	}
	return list
}
