package database

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
)

// ErrNoRows is returned by Row.Scan when a query matched nothing, whatever
// the underlying driver.
var ErrNoRows = errors.New("no rows in result set")

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Queryer runs statements either on the pool or inside a transaction.
type Queryer interface {
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
}

type Tx interface {
	Queryer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type DatabaseAdapter interface {
	Queryer

	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	// Builder returns a statement builder using the dialect's placeholders.
	Builder() squirrel.StatementBuilderType
	Begin(ctx context.Context) (Tx, error)
}
