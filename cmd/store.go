package cmd

import (
	"context"
	"fmt"

	"audiogest/config"
	"audiogest/storage"
)

// openStore builds the configured document store backend.
func openStore(ctx context.Context, cfg *config.Config) (storage.DocumentStore, func() error, error) {
	switch cfg.Store.Backend {
	case "couch":
		store, err := storage.OpenCouch(ctx, cfg.Store.CouchURL, cfg.Store.Database)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "sqlite":
		store, err := storage.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}
