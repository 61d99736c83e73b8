// Package bigquery is the BigQuery backend for transaction storage.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/store"
)

// TransactionRepository implements store.TransactionStore on a shared
// BigQuery client.
type TransactionRepository struct {
	client    *bigquery.Client
	datasetID string
	now       func() time.Time
}

// NewTransactionRepository creates a client for projectID. The table is
// created by cmd/migrate.
func NewTransactionRepository(ctx context.Context, projectID, datasetID string) (*TransactionRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewTransactionRepository: creating client: %w", err)
	}
	return &TransactionRepository{
		client:    client,
		datasetID: datasetID,
		now:       time.Now,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *TransactionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *TransactionRepository) List(ctx context.Context, userID string) ([]domain.TransactionRecord, error) {
	rows, err := QueryTransactionsByUserWithClient(ctx, r.client, r.datasetID, userID)
	if err != nil {
		return nil, err
	}
	recs := make([]domain.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toRecord())
	}
	return recs, nil
}

func (r *TransactionRepository) Append(ctx context.Context, userID string, rec domain.TransactionRecord) (domain.TransactionRecord, error) {
	rec, err := store.PrepareNew(userID, rec, r.now())
	if err != nil {
		return domain.TransactionRecord{}, err
	}
	if err := InsertTransactionWithClient(ctx, r.client, r.datasetID, toRow(rec)); err != nil {
		return domain.TransactionRecord{}, err
	}
	return rec, nil
}

// Update does not read the old row first; CreatedAt on the returned record
// is whatever the caller passed in.
func (r *TransactionRepository) Update(ctx context.Context, userID string, rec domain.TransactionRecord) (domain.TransactionRecord, error) {
	rec, err := store.PrepareUpdate(userID, rec, rec)
	if err != nil {
		return domain.TransactionRecord{}, err
	}
	n, err := UpdateTransactionWithClient(ctx, r.client, r.datasetID, toRow(rec))
	if err != nil {
		return domain.TransactionRecord{}, err
	}
	if n == 0 {
		return domain.TransactionRecord{}, fmt.Errorf("UpdateTransaction %s: %w", rec.ID, store.ErrNotFound)
	}
	return rec, nil
}

func (r *TransactionRepository) Remove(ctx context.Context, userID, id string) error {
	n, err := DeleteTransactionWithClient(ctx, r.client, r.datasetID, userID, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("DeleteTransaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}

var _ store.TransactionStore = (*TransactionRepository)(nil)
