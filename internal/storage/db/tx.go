package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InTx runs fn inside a transaction on handle. The transaction is committed if
// fn returns nil and rolled back otherwise. Panics roll back and are re-raised.
func InTx(ctx context.Context, handle *sql.DB, queries *Queries, fn func(q *Queries) error) (err error) {
	tx, err := handle.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
			}
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()
	return fn(queries.WithTx(tx))
}
