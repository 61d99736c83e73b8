package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/store"
)

// Store is an in-memory implementation of TransactionStore.
// It is safe for concurrent use; data is lost on restart.
type Store struct {
	mu    sync.RWMutex
	users map[string]map[string]domain.TransactionRecord
	now   func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]map[string]domain.TransactionRecord),
		now:   time.Now,
	}
}

func (s *Store) List(ctx context.Context, userID string) ([]domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]domain.TransactionRecord, 0, len(s.users[userID]))
	for _, rec := range s.users[userID] {
		recs = append(recs, rec)
	}
	store.SortChronological(recs)
	return recs, nil
}

func (s *Store) Append(ctx context.Context, userID string, rec domain.TransactionRecord) (domain.TransactionRecord, error) {
	rec, err := store.PrepareNew(userID, rec, s.now())
	if err != nil {
		return domain.TransactionRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.users[userID] == nil {
		s.users[userID] = make(map[string]domain.TransactionRecord)
	}
	s.users[userID][rec.ID] = rec
	return rec, nil
}

func (s *Store) Update(ctx context.Context, userID string, rec domain.TransactionRecord) (domain.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[userID][rec.ID]
	if !ok {
		return domain.TransactionRecord{}, fmt.Errorf("memory.Update %s: %w", rec.ID, store.ErrNotFound)
	}

	rec, err := store.PrepareUpdate(userID, rec, existing)
	if err != nil {
		return domain.TransactionRecord{}, err
	}
	s.users[userID][rec.ID] = rec
	return rec, nil
}

func (s *Store) Remove(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID][id]; !ok {
		return fmt.Errorf("memory.Remove %s: %w", id, store.ErrNotFound)
	}
	delete(s.users[userID], id)
	return nil
}

func (s *Store) Close() error { return nil }

// Ensure Store implements TransactionStore interface.
var _ store.TransactionStore = (*Store)(nil)
