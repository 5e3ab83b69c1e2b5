package storage

import (
	"context"
	"fmt"
	"net/http"

	_ "github.com/go-kivik/couchdb/v3" // couch driver registration
	kivik "github.com/go-kivik/kivik/v3"
	"github.com/google/uuid"

	"audiogest/record"
)

// CouchStore implements DocumentStore against a CouchDB database. Collections
// share one database and are discriminated by a "type" field that every
// mango selector carries.
type CouchStore struct {
	client *kivik.Client
	db     *kivik.DB
}

const defaultFindLimit = 10000

// OpenCouch connects to CouchDB and ensures the database exists.
func OpenCouch(ctx context.Context, dsn, database string) (*CouchStore, error) {
	client, err := kivik.New("couch", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect couchdb: %w", err)
	}

	exists, err := client.DBExists(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("check database %s: %w", database, err)
	}
	if !exists {
		if err := client.CreateDB(ctx, database); err != nil {
			return nil, fmt.Errorf("create database %s: %w", database, err)
		}
	}

	db := client.DB(ctx, database)
	if err := db.Err(); err != nil {
		return nil, fmt.Errorf("open database %s: %w", database, err)
	}
	return &CouchStore{client: client, db: db}, nil
}

func (s *CouchStore) Close() error {
	return s.client.Close(context.Background())
}

func (s *CouchStore) Create(ctx context.Context, collection string, doc map[string]any) (string, error) {
	body := make(map[string]any, len(doc)+1)
	for key, value := range doc {
		body[key] = value
	}
	body["type"] = collection

	id := uuid.NewString()
	if _, err := s.db.Put(ctx, id, body); err != nil {
		return "", fmt.Errorf("create document in %s: %w", collection, err)
	}
	return id, nil
}

func (s *CouchStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	body, _, err := s.fetch(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	delete(body, "_id")
	delete(body, "_rev")
	delete(body, "type")
	return &Document{ID: id, Fields: body}, nil
}

func (s *CouchStore) Find(ctx context.Context, collection string, query Query) ([]Document, error) {
	selector := map[string]any{"type": collection}
	for _, filter := range query.Filters {
		if !validFieldName(filter.Field) {
			return nil, fmt.Errorf("invalid filter field %q", filter.Field)
		}
		switch filter.Op {
		case OpEq, "":
			selector[filter.Field] = filter.Value
		case OpGte, OpLte:
			constraint, ok := selector[filter.Field].(map[string]any)
			if !ok {
				constraint = make(map[string]any)
				selector[filter.Field] = constraint
			}
			if filter.Op == OpGte {
				constraint["$gte"] = filter.Value
			} else {
				constraint["$lte"] = filter.Value
			}
		default:
			return nil, fmt.Errorf("unsupported filter operator %q", filter.Op)
		}
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}
	mango := map[string]any{
		"selector": selector,
		"limit":    limit,
	}
	if query.OrderBy != "" {
		direction := "asc"
		if query.Descending {
			direction = "desc"
		}
		mango["sort"] = []map[string]string{{query.OrderBy: direction}}
	}

	rows, err := s.db.Find(ctx, mango)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	defer rows.Close()

	documents := make([]Document, 0, 32)
	for rows.Next() {
		var body map[string]any
		if err := rows.ScanDoc(&body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		id, _ := body["_id"].(string)
		delete(body, "_id")
		delete(body, "_rev")
		delete(body, "type")
		documents = append(documents, Document{ID: id, Fields: body})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return documents, nil
}

func (s *CouchStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	body, _, err := s.fetch(ctx, collection, id)
	if err != nil {
		return err
	}
	applyFields(body, fields)
	if _, err := s.db.Put(ctx, id, body); err != nil {
		return fmt.Errorf("update document %s: %w", id, err)
	}
	return nil
}

func (s *CouchStore) AppendHistory(ctx context.Context, collection, id string, entry record.HistoryEntry) error {
	body, _, err := s.fetch(ctx, collection, id)
	if err != nil {
		return err
	}
	body["historique"] = append(historyList(body["historique"]), entry)
	if _, err := s.db.Put(ctx, id, body); err != nil {
		return fmt.Errorf("append history to %s: %w", id, err)
	}
	return nil
}

func (s *CouchStore) Delete(ctx context.Context, collection, id string) error {
	_, rev, err := s.fetch(ctx, collection, id)
	if err != nil {
		return err
	}
	if _, err := s.db.Delete(ctx, id, rev); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// fetch loads a raw document body, keeping _id/_rev so writes can round-trip.
func (s *CouchStore) fetch(ctx context.Context, collection, id string) (map[string]any, string, error) {
	row := s.db.Get(ctx, id)
	var body map[string]any
	if err := row.ScanDoc(&body); err != nil {
		if kivik.StatusCode(err) == http.StatusNotFound {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("get document %s: %w", id, err)
	}
	if docType, _ := body["type"].(string); docType != collection {
		return nil, "", ErrNotFound
	}
	rev, _ := body["_rev"].(string)
	return body, rev, nil
}
