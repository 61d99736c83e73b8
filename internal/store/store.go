// Package store defines the transaction storage port used around the chat
// core. Backends live in subpackages.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-chat/internal/domain"
)

var (
	ErrNotFound      = errors.New("transaction not found")
	ErrMissingUserID = errors.New("user ID is required")
)

// TransactionStore keeps each user's transactions.
type TransactionStore interface {
	// List returns all of the user's transactions, oldest first.
	List(ctx context.Context, userID string) ([]domain.TransactionRecord, error)
	// Append validates rec, assigns a fresh ID and stores it.
	Append(ctx context.Context, userID string, rec domain.TransactionRecord) (domain.TransactionRecord, error)
	// Update replaces the stored transaction with rec.ID.
	Update(ctx context.Context, userID string, rec domain.TransactionRecord) (domain.TransactionRecord, error)
	// Remove deletes one transaction.
	Remove(ctx context.Context, userID, id string) error
	Close() error
}

// PrepareNew checks rec and fills the fields owned by the store.
func PrepareNew(userID string, rec domain.TransactionRecord, now time.Time) (domain.TransactionRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.TransactionRecord{}, ErrMissingUserID
	}
	if err := rec.Validate(); err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("PrepareNew: %w", err)
	}
	rec.ID = uuid.NewString()
	rec.UserID = userID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

// PrepareUpdate checks an edited record. CreatedAt is taken from the stored
// version.
func PrepareUpdate(userID string, rec, existing domain.TransactionRecord) (domain.TransactionRecord, error) {
	if err := rec.Validate(); err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("PrepareUpdate: %w", err)
	}
	rec.UserID = userID
	rec.CreatedAt = existing.CreatedAt
	return rec, nil
}

// SortChronological orders records oldest first, then by ID.
func SortChronological(recs []domain.TransactionRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}
