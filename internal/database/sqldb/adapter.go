// Package sqldb adapts database/sql drivers to the seeder: lib/pq for
// PostgreSQL and go-sqlite3 for local SQLite files.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/libseed/internal/database"
	"github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type Adapter struct {
	db     *sql.DB
	driver string
	qb     squirrel.StatementBuilderType
}

func New(driver string) *Adapter {
	var format squirrel.PlaceholderFormat = squirrel.Dollar
	if driver == DriverSQLite {
		format = squirrel.Question
	}
	return &Adapter{
		driver: driver,
		qb:     squirrel.StatementBuilder.PlaceholderFormat(format),
	}
}

func (s *Adapter) Connect(ctx context.Context, url string) error {
	dsn := url
	if s.driver == DriverSQLite {
		dsn = strings.TrimPrefix(url, "sqlite://")
		if !strings.Contains(dsn, "_foreign_keys") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_foreign_keys=on"
		}
	}

	db, err := sql.Open(s.driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", s.driver, err)
	}

	if s.driver == DriverSQLite {
		// One writer; also keeps in-memory databases alive between statements.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(2)
		db.SetConnMaxLifetime(15 * time.Minute)
		db.SetConnMaxIdleTime(3 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

func (s *Adapter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Adapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Adapter) Builder() squirrel.StatementBuilderType {
	return s.qb
}

func (s *Adapter) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return row{s.db.QueryRowContext(ctx, query, args...)}
}

func (s *Adapter) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	r, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows{r}, nil
}

func (s *Adapter) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *Adapter) Begin(ctx context.Context) (database.Tx, error) {
	t, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tx{t}, nil
}

type tx struct {
	tx *sql.Tx
}

func (t tx) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return row{t.tx.QueryRowContext(ctx, query, args...)}
}

func (t tx) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	r, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows{r}, nil
}

func (t tx) Exec(ctx context.Context, query string, args ...any) error {
	_, err := t.tx.ExecContext(ctx, query, args...)
	return err
}

func (t tx) Commit(context.Context) error {
	return t.tx.Commit()
}

func (t tx) Rollback(context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

type row struct {
	row *sql.Row
}

func (r row) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return database.ErrNoRows
	}
	return err
}

type rows struct {
	*sql.Rows
}

func (r rows) Close() {
	_ = r.Rows.Close()
}
