// Package store contains models of the application, the ledger of
// published articles and storages to keep the ledger between runs.
package store

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"
)

// ErrCorrupted is returned by storages when the persisted ledger can't be decoded.
var ErrCorrupted = errors.New("ledger is corrupted")

// Storage defines methods to keep the ledger between runs.
type Storage interface {
	// Load returns the persisted entries, or an empty mapping if
	// nothing was persisted yet.
	Load(ctx context.Context) (map[string]Entry, error)
	// Save replaces everything persisted with the given entries.
	Save(ctx context.Context, entries map[string]Entry) error
}

// LoadLedger reads the ledger from the storage. An unreadable or corrupted
// storage yields an empty ledger, so every article is treated as new.
func LoadLedger(ctx context.Context, s Storage, lg *slog.Logger) *Ledger {
	entries, err := s.Load(ctx)
	if err != nil {
		lg.WarnCtx(ctx, "failed to load ledger, starting with an empty one", slog.Any("err", err))
		return NewLedger(nil)
	}

	return NewLedger(entries)
}

// PersistLedger overwrites the storage with the ledger entries.
func PersistLedger(ctx context.Context, s Storage, l *Ledger) error {
	if err := s.Save(ctx, l.Entries()); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}
