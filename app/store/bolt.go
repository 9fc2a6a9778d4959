package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const ledgerBktName = "ledger"

// Bolt is a storage that uses BoltDB as a backend.
type Bolt struct {
	db *bolt.DB
}

// NewBolt creates new Bolt storage in the given file.
func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to make boltdb for %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(ledgerBktName)); err != nil {
			return fmt.Errorf("create top-level bucket %s: %w", ledgerBktName, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("make buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Load returns all entries from the storage.
func (b *Bolt) Load(context.Context) (map[string]Entry, error) {
	result := map[string]Entry{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(ledgerBktName))
		err := bkt.ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("%w: unmarshal entry %s: %v", ErrCorrupted, k, err)
			}
			result[string(k)] = e
			return nil
		})
		if err != nil {
			return fmt.Errorf("foreach: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("view storage: %w", err)
	}
	return result, nil
}

// Save replaces the stored entries in a single transaction.
func (b *Bolt) Save(_ context.Context, entries map[string]Entry) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(ledgerBktName)); err != nil && err != bolt.ErrBucketNotFound {
			return fmt.Errorf("drop bucket: %w", err)
		}

		bkt, err := tx.CreateBucket([]byte(ledgerBktName))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		for u, e := range entries {
			bts, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshal entry %s: %w", u, err)
			}

			if err := bkt.Put([]byte(u), bts); err != nil {
				return fmt.Errorf("put entry %s: %w", u, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

// Close closes the storage.
func (b *Bolt) Close() error { return b.db.Close() }
