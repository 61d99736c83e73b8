// Package boltdb keeps transactions in a local bolt file, one nested bucket
// per user. The CLI uses it so history survives between sessions.
package boltdb

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/store"
)

var rootBucket = []byte("transactions")

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens (or creates) the bolt file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltdb.Open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("boltdb.Open: creating root bucket: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) List(ctx context.Context, userID string) ([]domain.TransactionRecord, error) {
	var recs []domain.TransactionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootBucket).Bucket([]byte(userID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			rec, err := decode(v)
			if err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltdb.List: %w", err)
	}
	store.SortChronological(recs)
	return recs, nil
}

func (s *Store) Append(ctx context.Context, userID string, rec domain.TransactionRecord) (domain.TransactionRecord, error) {
	rec, err := store.PrepareNew(userID, rec, s.now())
	if err != nil {
		return domain.TransactionRecord{}, err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(rootBucket).CreateBucketIfNotExists([]byte(userID))
		if err != nil {
			return err
		}
		return put(b, rec)
	})
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("boltdb.Append: %w", err)
	}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, userID string, rec domain.TransactionRecord) (domain.TransactionRecord, error) {
	var out domain.TransactionRecord
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootBucket).Bucket([]byte(userID))
		if b == nil {
			return store.ErrNotFound
		}
		raw := b.Get([]byte(rec.ID))
		if raw == nil {
			return store.ErrNotFound
		}
		existing, err := decode(raw)
		if err != nil {
			return err
		}
		out, err = store.PrepareUpdate(userID, rec, existing)
		if err != nil {
			return err
		}
		return put(b, out)
	})
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("boltdb.Update %s: %w", rec.ID, err)
	}
	return out, nil
}

func (s *Store) Remove(ctx context.Context, userID, id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootBucket).Bucket([]byte(userID))
		if b == nil || b.Get([]byte(id)) == nil {
			return store.ErrNotFound
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("boltdb.Remove %s: %w", id, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func put(b *bolt.Bucket, rec domain.TransactionRecord) error {
	var val bytes.Buffer
	if err := gob.NewEncoder(&val).Encode(rec); err != nil {
		return fmt.Errorf("encoding %s: %w", rec.ID, err)
	}
	return b.Put([]byte(rec.ID), val.Bytes())
}

func decode(v []byte) (domain.TransactionRecord, error) {
	var rec domain.TransactionRecord
	err := gob.NewDecoder(bytes.NewReader(v)).Decode(&rec)
	return rec, err
}

var _ store.TransactionStore = (*Store)(nil)
