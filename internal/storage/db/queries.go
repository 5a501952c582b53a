package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries executes the entry statements against a DBTX for a given dialect.
type Queries struct {
	db      DBTX
	dialect Dialect
}

// New returns Queries bound to db.
func New(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

// WithTx returns a copy of q running inside tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

const listEntries = `-- name: ListEntries :many
SELECT id, title, text, created FROM entries
ORDER BY created DESC, id DESC
`

func (q *Queries) ListEntries(ctx context.Context) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(listEntries))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Entry
	for rows.Next() {
		var i Entry
		if err := rows.Scan(&i.ID, &i.Title, &i.Text, &i.Created); err != nil {
			return nil, err
		}
		i.Created = i.Created.UTC()
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getEntry = `-- name: GetEntry :one
SELECT id, title, text, created FROM entries
WHERE id = ?
`

func (q *Queries) GetEntry(ctx context.Context, id int64) (Entry, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(getEntry), id)
	return scanEntry(row)
}

const createEntry = `-- name: CreateEntry :one
INSERT INTO entries (title, text, created)
VALUES (?, ?, ?)
RETURNING id, title, text, created
`

type CreateEntryParams struct {
	Title   string
	Text    string
	Created time.Time
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (Entry, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(createEntry), arg.Title, arg.Text, arg.Created)
	return scanEntry(row)
}

const updateEntry = `-- name: UpdateEntry :one
UPDATE entries SET title = ?, text = ?
WHERE id = ?
RETURNING id, title, text, created
`

type UpdateEntryParams struct {
	Title string
	Text  string
	ID    int64
}

func (q *Queries) UpdateEntry(ctx context.Context, arg UpdateEntryParams) (Entry, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(updateEntry), arg.Title, arg.Text, arg.ID)
	return scanEntry(row)
}

const deleteEntry = `-- name: DeleteEntry :execrows
DELETE FROM entries
WHERE id = ?
`

func (q *Queries) DeleteEntry(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, q.rebind(deleteEntry), id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanEntry(row *sql.Row) (Entry, error) {
	var i Entry
	err := row.Scan(&i.ID, &i.Title, &i.Text, &i.Created)
	i.Created = i.Created.UTC()
	return i, err
}

// rebind rewrites ? placeholders into $n for PostgreSQL. The statements above
// contain no string literals, so every ? is a parameter.
func (q *Queries) rebind(query string) string {
	if q.dialect != DialectPostgres {
		return query
	}
	var (
		out strings.Builder
		n   int
	)
	out.Grow(len(query) + 8)
	for _, r := range query {
		if r != '?' {
			out.WriteRune(r)
			continue
		}
		n++
		out.WriteByte('$')
		out.WriteString(strconv.Itoa(n))
	}
	return out.String()
}
