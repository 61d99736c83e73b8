// Package backend opens the transaction store selected in configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-chat/internal/config"
	infraBQ "github.com/dvloznov/finance-chat/internal/infra/bigquery"
	"github.com/dvloznov/finance-chat/internal/store"
	"github.com/dvloznov/finance-chat/internal/store/boltdb"
	"github.com/dvloznov/finance-chat/internal/store/memory"
	"github.com/dvloznov/finance-chat/internal/store/postgres"
)

// Open returns the store named by cfg.Backend. The caller closes it.
func Open(ctx context.Context, cfg config.StoreConfig) (store.TransactionStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return memory.NewStore(), nil
	case "bolt":
		return boltdb.Open(cfg.BoltPath)
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("backend.Open: store.postgres_url is required")
		}
		return postgres.Open(ctx, cfg.PostgresURL)
	case "bigquery":
		if cfg.BigQueryProject == "" {
			return nil, fmt.Errorf("backend.Open: store.bigquery_project is required")
		}
		return infraBQ.NewTransactionRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	default:
		return nil, fmt.Errorf("backend.Open: unknown store backend %q", cfg.Backend)
	}
}
