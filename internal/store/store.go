// Package store is the durable entity store for the guild → hunt → round →
// puzzle hierarchy. All lookup keys are natural keys (guild+channel for
// puzzles, category for rounds, guild+name for hunts) and all get-or-create
// operations are safe against concurrent callers racing on the same key:
// uniqueness is enforced by the database, and a conflicting insert falls back
// to reading the winner's row.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when an entity does not exist. Callers use it to
// distinguish "not a tracked item" from a real fault.
var ErrNotFound = errors.New("store: not found")

// Store wraps the database handle with entity-level operations.
type Store struct {
	db *gorm.DB
}

// New creates a Store backed by the given GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for read-only query layers (dashboard).
func (s *Store) DB() *gorm.DB {
	return s.db
}

// first runs a query and maps gorm's record-not-found onto ErrNotFound.
func first[T any](tx *gorm.DB, dest *T) (*T, error) {
	if err := tx.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: query: %w", err)
	}
	return dest, nil
}
