package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/stolasapp/journal/internal/config"
	"github.com/stolasapp/journal/internal/storage/db"
)

// DB is a [Store] backed by a PostgreSQL or SQLite database.
type DB struct {
	db      *sql.DB
	queries *db.Queries
	now     func() time.Time
}

// NewDB initializes a DB with the given config and logger.
func NewDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*DB, error) {
	handle, dialect, err := db.Open(ctx, logger, cfg.DatabaseURL, db.Options{
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "opened database", slog.String("dialect", string(dialect)))
	return &DB{
		db:      handle,
		queries: db.New(handle, dialect),
		now:     time.Now,
	}, nil
}

// Close satisfies the [Store] interface.
func (d *DB) Close() error {
	return d.db.Close()
}

// ListEntries satisfies the [Entries] interface.
func (d *DB) ListEntries(ctx context.Context) ([]db.Entry, error) {
	entries, err := d.queries.ListEntries(ctx)
	if err != nil {
		return nil, wrap(err)
	}
	if entries == nil {
		entries = []db.Entry{}
	}
	return entries, nil
}

// GetEntry satisfies the [Entries] interface.
func (d *DB) GetEntry(ctx context.Context, id int64) (db.Entry, error) {
	if id <= 0 {
		return db.Entry{}, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}
	entry, err := d.queries.GetEntry(ctx, id)
	if err != nil {
		return db.Entry{}, wrap(err)
	}
	return entry, nil
}

// CreateEntry satisfies the [Entries] interface.
func (d *DB) CreateEntry(ctx context.Context, title, text string) (entry db.Entry, err error) {
	if err = validate(title, text); err != nil {
		return entry, err
	}
	err = db.InTx(ctx, d.db, d.queries, func(q *db.Queries) error {
		entry, err = q.CreateEntry(ctx, db.CreateEntryParams{
			Title:   strings.TrimSpace(title),
			Text:    text,
			Created: d.now().UTC().Truncate(time.Microsecond),
		})
		return err
	})
	if err != nil {
		return db.Entry{}, wrap(err)
	}
	return entry, nil
}

// UpdateEntry satisfies the [Entries] interface.
func (d *DB) UpdateEntry(ctx context.Context, id int64, title, text string) (entry db.Entry, err error) {
	if id <= 0 {
		return entry, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}
	if err = validate(title, text); err != nil {
		return entry, err
	}
	err = db.InTx(ctx, d.db, d.queries, func(q *db.Queries) error {
		entry, err = q.UpdateEntry(ctx, db.UpdateEntryParams{
			Title: strings.TrimSpace(title),
			Text:  text,
			ID:    id,
		})
		return err
	})
	if err != nil {
		return db.Entry{}, wrap(err)
	}
	return entry, nil
}

// DeleteEntry satisfies the [Entries] interface.
func (d *DB) DeleteEntry(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}
	switch n, err := d.queries.DeleteEntry(ctx, id); {
	case err != nil:
		return wrap(err)
	case n == 0:
		return ErrNotFound
	default:
		return nil
	}
}

func validate(title, text string) error {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, MaxTitleLength)
	case strings.TrimSpace(text) == "":
		return fmt.Errorf("%w: text is required", ErrInvalidInput)
	default:
		return nil
	}
}

func wrap(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

var _ Store = (*DB)(nil)
