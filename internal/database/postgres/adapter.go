package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/libseed/internal/database"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Adapter struct {
	pool *pgxpool.Pool
	qb   squirrel.StatementBuilderType
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	// Arguments are interpolated client side, so ids, CUIs and carnets bind
	// to whatever column types the target schema declares for them.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	config.MaxConns = 2
	config.MinConns = 0
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	p.pool = pool
	return nil
}

func (p *Adapter) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Adapter) Builder() squirrel.StatementBuilderType {
	return p.qb
}

func (p *Adapter) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return row{p.pool.QueryRow(ctx, query, args...)}
}

func (p *Adapter) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return p.pool.Query(ctx, query, args...)
}

func (p *Adapter) Exec(ctx context.Context, query string, args ...any) error {
	_, err := p.pool.Exec(ctx, query, args...)
	return err
}

func (p *Adapter) Begin(ctx context.Context) (database.Tx, error) {
	t, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx{t}, nil
}

type tx struct {
	tx pgx.Tx
}

func (t tx) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return row{t.tx.QueryRow(ctx, query, args...)}
}

func (t tx) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return t.tx.Query(ctx, query, args...)
}

func (t tx) Exec(ctx context.Context, query string, args ...any) error {
	_, err := t.tx.Exec(ctx, query, args...)
	return err
}

func (t tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

type row struct {
	row pgx.Row
}

func (r row) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return database.ErrNoRows
	}
	return err
}
