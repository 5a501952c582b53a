// Package storage provides the state management for journal entries.
package storage

import (
	"context"

	"github.com/stolasapp/journal/internal/storage/db"
)

const (
	// ErrInvalidInput is returned when an ID, title or text fails validation.
	ErrInvalidInput Error = "invalid input"
	// ErrNotFound is returned when an entry cannot be found.
	ErrNotFound Error = "not found"
	// ErrStorage wraps any failure of the underlying database.
	ErrStorage Error = "storage error"
)

// MaxTitleLength is the maximum number of characters in an entry title.
const MaxTitleLength = 127

// Error is an error type returned by the storage implementation.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Entries are the methods on a storage implementation that are responsible
// for accessing and modifying journal entries.
type Entries interface {
	// ListEntries returns every entry, newest first. Entries created at the
	// same instant are ordered by descending ID.
	ListEntries(ctx context.Context) ([]db.Entry, error)
	// GetEntry returns a single entry with the specified ID. An [ErrNotFound]
	// is returned if the ID does not exist, and [ErrInvalidInput] if it is not
	// positive.
	GetEntry(ctx context.Context, id int64) (db.Entry, error)
	// CreateEntry persists a new entry stamped with the current time and
	// returns it as stored.
	CreateEntry(ctx context.Context, title, text string) (db.Entry, error)
	// UpdateEntry replaces the title and text of an existing entry. The
	// creation time is left untouched.
	UpdateEntry(ctx context.Context, id int64, title, text string) (db.Entry, error)
	// DeleteEntry permanently removes an entry. An [ErrNotFound] is returned
	// if the ID does not exist.
	DeleteEntry(ctx context.Context, id int64) error
}

// Store is the [Entries] interface plus lifecycle management.
type Store interface {
	Entries
	// Close releases any resources held by the store. An error is returned if
	// the store cannot be cleanly closed.
	Close() error
}
