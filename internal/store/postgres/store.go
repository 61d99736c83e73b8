// Package postgres stores transactions in PostgreSQL through pgx's
// database/sql driver. The schema lives in migrations/postgres.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/store"
)

const selectColumns = `id, user_id, type, amount, category, description, created_at`

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NormalizeURL rewrites postgresql:// to postgres:// and turns TLS off
// unless the URL asks for an sslmode.
func NormalizeURL(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgresql://") {
		databaseURL = "postgres://" + strings.TrimPrefix(databaseURL, "postgresql://")
	}
	if !strings.Contains(databaseURL, "sslmode=") {
		sep := "?"
		if strings.Contains(databaseURL, "?") {
			sep = "&"
		}
		databaseURL += sep + "sslmode=disable"
	}
	return databaseURL
}

// OpenDB parses databaseURL and pings the server.
func OpenDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(NormalizeURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("postgres.OpenDB: parsing URL: %w", err)
	}
	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres.OpenDB: ping: %w", err)
	}
	return db, nil
}

// Open connects to databaseURL. The transactions table must already exist.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := OpenDB(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wraps an existing connection pool.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) List(ctx context.Context, userID string) ([]domain.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM transactions WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres.List: query: %w", err)
	}
	defer rows.Close()

	var recs []domain.TransactionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres.List: scan: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.List: rows: %w", err)
	}
	return recs, nil
}

func (s *Store) Append(ctx context.Context, userID string, rec domain.TransactionRecord) (domain.TransactionRecord, error) {
	rec, err := store.PrepareNew(userID, rec, s.now())
	if err != nil {
		return domain.TransactionRecord{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, category, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.UserID, string(rec.Type), rec.Amount, string(rec.Category), rec.Description, rec.CreatedAt)
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("postgres.Append: insert: %w", err)
	}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, userID string, rec domain.TransactionRecord) (domain.TransactionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM transactions WHERE user_id = $1 AND id = $2`, userID, rec.ID)
	existing, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TransactionRecord{}, fmt.Errorf("postgres.Update %s: %w", rec.ID, store.ErrNotFound)
	}
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("postgres.Update %s: %w", rec.ID, err)
	}

	rec, err = store.PrepareUpdate(userID, rec, existing)
	if err != nil {
		return domain.TransactionRecord{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE transactions SET type = $3, amount = $4, category = $5, description = $6
		 WHERE user_id = $1 AND id = $2`,
		userID, rec.ID, string(rec.Type), rec.Amount, string(rec.Category), rec.Description)
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("postgres.Update %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *Store) Remove(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("postgres.Remove %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres.Remove %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("postgres.Remove %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (domain.TransactionRecord, error) {
	var (
		rec      domain.TransactionRecord
		typ, cat string
	)
	if err := sc.Scan(&rec.ID, &rec.UserID, &typ, &rec.Amount, &cat, &rec.Description, &rec.CreatedAt); err != nil {
		return domain.TransactionRecord{}, err
	}
	rec.Type = domain.TransactionType(typ)
	rec.Category = domain.Category(cat)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

var _ store.TransactionStore = (*Store)(nil)
