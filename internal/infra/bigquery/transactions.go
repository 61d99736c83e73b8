package bigquery

import (
	"time"

	"github.com/dvloznov/finance-chat/internal/domain"
)

type TransactionRow struct {
	TransactionID string    `bigquery:"transaction_id"` // REQUIRED
	UserID        string    `bigquery:"user_id"`        // REQUIRED
	Type          string    `bigquery:"type"`           // REQUIRED: income | expense
	Amount        float64   `bigquery:"amount"`         // REQUIRED FLOAT64
	Category      string    `bigquery:"category"`       // REQUIRED
	Description   string    `bigquery:"description"`    // REQUIRED
	CreatedTS     time.Time `bigquery:"created_ts"`     // REQUIRED
}

func toRow(rec domain.TransactionRecord) *TransactionRow {
	return &TransactionRow{
		TransactionID: rec.ID,
		UserID:        rec.UserID,
		Type:          string(rec.Type),
		Amount:        rec.Amount,
		Category:      string(rec.Category),
		Description:   rec.Description,
		CreatedTS:     rec.CreatedAt.UTC(),
	}
}

func (r *TransactionRow) toRecord() domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:          r.TransactionID,
		UserID:      r.UserID,
		Type:        domain.TransactionType(r.Type),
		Amount:      r.Amount,
		Category:    domain.Category(r.Category),
		Description: r.Description,
		CreatedAt:   r.CreatedTS.UTC(),
	}
}
