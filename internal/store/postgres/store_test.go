package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/store"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/db", "postgres://u:p@localhost:5432/db?sslmode=disable"},
		{"postgresql://u:p@localhost/db", "postgres://u:p@localhost/db?sslmode=disable"},
		{"postgres://localhost/db?connect_timeout=5", "postgres://localhost/db?connect_timeout=5&sslmode=disable"},
		{"postgres://localhost/db?sslmode=require", "postgres://localhost/db?sslmode=require"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeURL(tt.in); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestStore_RoundTrip needs a migrated database in FINCHAT_TEST_POSTGRES_URL.
func TestStore_RoundTrip(t *testing.T) {
	url := os.Getenv("FINCHAT_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("FINCHAT_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	user := "test-" + uuid.NewString()
	rec, err := s.Append(ctx, user, domain.TransactionRecord{
		Type:        domain.Expense,
		Amount:      250,
		Category:    domain.CategoryFood,
		Description: "lunch",
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	rec.Amount = 275.5
	if _, err := s.Update(ctx, user, rec); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	recs, err := s.List(ctx, user)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 1 || recs[0].Amount != 275.5 {
		t.Fatalf("unexpected records: %+v", recs)
	}

	if err := s.Remove(ctx, user, rec.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := s.Remove(ctx, user, rec.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
