package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"audiogest/record"
)

// SQLiteStore implements DocumentStore over a single-file SQLite database.
// Documents are stored as JSON bodies in one table; filters and ordering go
// through json_extract.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed bootstraps) a document database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, collection string, doc map[string]any) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, body) VALUES (?, ?, ?)`,
		id, collection, string(body),
	)
	if err != nil {
		return "", fmt.Errorf("create document in %s: %w", collection, err)
	}
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE id = ? AND collection = ?`,
		id, collection,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}

	fields, err := unmarshalBody(body)
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Fields: fields}, nil
}

func (s *SQLiteStore) Find(ctx context.Context, collection string, query Query) ([]Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, body FROM documents WHERE collection = ?`)
	args := []any{collection}

	for _, filter := range query.Filters {
		if !validFieldName(filter.Field) {
			return nil, fmt.Errorf("invalid filter field %q", filter.Field)
		}
		operator := "="
		switch filter.Op {
		case OpEq, "":
		case OpGte:
			operator = ">="
		case OpLte:
			operator = "<="
		default:
			return nil, fmt.Errorf("unsupported filter operator %q", filter.Op)
		}
		fmt.Fprintf(&sb, ` AND json_extract(body, '$.%s') %s ?`, filter.Field, operator)
		args = append(args, filter.Value)
	}

	if query.OrderBy != "" {
		if !validFieldName(query.OrderBy) {
			return nil, fmt.Errorf("invalid order field %q", query.OrderBy)
		}
		direction := "ASC"
		if query.Descending {
			direction = "DESC"
		}
		fmt.Fprintf(&sb, ` ORDER BY json_extract(body, '$.%s') %s`, query.OrderBy, direction)
	}
	if query.Limit > 0 {
		fmt.Fprintf(&sb, ` LIMIT %d`, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	defer rows.Close()

	documents := make([]Document, 0, 32)
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		fields, err := unmarshalBody(body)
		if err != nil {
			return nil, err
		}
		documents = append(documents, Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return documents, nil
}

func (s *SQLiteStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.modify(ctx, collection, id, func(body map[string]any) {
		applyFields(body, fields)
	})
}

func (s *SQLiteStore) AppendHistory(ctx context.Context, collection, id string, entry record.HistoryEntry) error {
	return s.modify(ctx, collection, id, func(body map[string]any) {
		body["historique"] = append(historyList(body["historique"]), entry)
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ? AND collection = ?`,
		id, collection,
	)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// modify runs a read-modify-write cycle on one document inside a transaction.
func (s *SQLiteStore) modify(ctx context.Context, collection, id string, mutate func(body map[string]any)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE id = ? AND collection = ?`,
		id, collection,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get document %s: %w", id, err)
	}

	body, err := unmarshalBody(raw)
	if err != nil {
		return err
	}
	mutate(body)

	updated, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(updated), id,
	)
	if err != nil {
		return fmt.Errorf("update document %s: %w", id, err)
	}
	return tx.Commit()
}

func unmarshalBody(body string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal document body: %w", err)
	}
	return fields, nil
}
