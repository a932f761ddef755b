package database

import (
	"context"
	"fmt"
)

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise, including when fn panics. The
// connection held by the transaction is released on every path.
func WithTx(ctx context.Context, db DatabaseAdapter, fn func(tx Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Pin returns an adapter whose statements and transactions all run on tx.
// Transactions begun on it are nested in tx: committing or rolling them
// back is left to whoever owns tx.
func Pin(db DatabaseAdapter, tx Tx) DatabaseAdapter {
	return &pinned{DatabaseAdapter: db, tx: tx}
}

type pinned struct {
	DatabaseAdapter
	tx Tx
}

func (p *pinned) QueryRow(ctx context.Context, query string, args ...any) Row {
	return p.tx.QueryRow(ctx, query, args...)
}

func (p *pinned) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return p.tx.Query(ctx, query, args...)
}

func (p *pinned) Exec(ctx context.Context, query string, args ...any) error {
	return p.tx.Exec(ctx, query, args...)
}

func (p *pinned) Begin(context.Context) (Tx, error) {
	return nested{p.tx}, nil
}

type nested struct {
	Tx
}

func (nested) Commit(context.Context) error   { return nil }
func (nested) Rollback(context.Context) error { return nil }
