package seeder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Lumos-Labs-HQ/libseed/internal/config"
	"github.com/Lumos-Labs-HQ/libseed/internal/database/sqldb"
	"github.com/Lumos-Labs-HQ/libseed/internal/manifest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sqliteSchema = `
CREATE TABLE role (id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))), name TEXT NOT NULL UNIQUE);
CREATE TABLE degree (id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))), name TEXT NOT NULL);
CREATE TABLE publisher (id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))), name TEXT NOT NULL);
CREATE TABLE author (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	name TEXT NOT NULL,
	nationality TEXT,
	birth_date DATE
);
CREATE TABLE book (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	author_id TEXT NOT NULL REFERENCES author(id),
	publisher_id TEXT NOT NULL REFERENCES publisher(id),
	title TEXT NOT NULL,
	code TEXT NOT NULL,
	isbn TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity >= 1),
	publication_date DATE,
	available_copies INTEGER NOT NULL CHECK (available_copies BETWEEN 0 AND quantity),
	price NUMERIC NOT NULL,
	image_url TEXT
);
CREATE TABLE user_account (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	email TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	name TEXT NOT NULL,
	cui INTEGER NOT NULL,
	birth_date DATE,
	role_id TEXT NOT NULL REFERENCES role(id),
	is_approved BOOLEAN NOT NULL,
	email_verified BOOLEAN NOT NULL,
	image_url TEXT
);
CREATE TABLE student (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	user_id TEXT NOT NULL UNIQUE REFERENCES user_account(id),
	is_sanctioned BOOLEAN NOT NULL,
	carnet INTEGER NOT NULL,
	degree_id TEXT NOT NULL REFERENCES degree(id)
);
CREATE TABLE loan (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	book_id TEXT NOT NULL REFERENCES book(id),
	student_id TEXT NOT NULL REFERENCES student(id),
	loan_date TIMESTAMP NOT NULL,
	due_date TIMESTAMP NOT NULL,
	return_date TIMESTAMP,
	debt NUMERIC NOT NULL
);
CREATE TABLE payment (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	loan_id TEXT NOT NULL REFERENCES loan(id),
	amount NUMERIC NOT NULL CHECK (amount > 0),
	paid_date TIMESTAMP NOT NULL,
	pay_type TEXT NOT NULL CHECK (pay_type IN ('NORMAL_LOAN', 'OVERDUE_LOAN', 'SANCTION'))
);
INSERT INTO role (name) VALUES ('ADMIN'), ('STUDENT');
INSERT INTO degree (name) VALUES ('Ingenieria en Sistemas'), ('Derecho'), ('Medicina');
`

func openSQLite(t *testing.T) *sqldb.Adapter {
	t.Helper()

	adapter := sqldb.New(sqldb.DriverSQLite)
	path := filepath.Join(t.TempDir(), "library.db")
	if err := adapter.Connect(context.Background(), "sqlite://"+path); err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { adapter.Close() })

	require.NoError(t, adapter.Exec(context.Background(), sqliteSchema))
	return adapter
}

func count(t *testing.T, adapter *sqldb.Adapter, table string) int {
	t.Helper()
	var n int
	require.NoError(t, adapter.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSQLiteRunAndPurge(t *testing.T) {
	adapter := openSQLite(t)
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.LoanTx = config.LoanTxLoan
	rc, err := NewSeeder(adapter, cfg).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, count(t, adapter, "publisher"))
	assert.Equal(t, 3, count(t, adapter, "author"))
	assert.Equal(t, 6, count(t, adapter, "book"))
	assert.Equal(t, 5, count(t, adapter, "user_account"))
	assert.Equal(t, 5, count(t, adapter, "student"))
	assert.Equal(t, 80, count(t, adapter, "loan"))
	assert.Equal(t, rc.Loans.PaymentCount(), count(t, adapter, "payment"))

	rows, err := adapter.Query(ctx, `
		SELECT l.debt, COALESCE(SUM(p.amount), 0), COUNT(p.id), l.return_date IS NULL
		FROM loan l LEFT JOIN payment p ON p.loan_id = l.id
		GROUP BY l.id`)
	require.NoError(t, err)
	defer rows.Close()

	loans := 0
	for rows.Next() {
		var (
			loanDebt, paid decimal.Decimal
			payments       int
			out            bool
		)
		require.NoError(t, rows.Scan(&loanDebt, &paid, &payments, &out))
		assert.True(t, loanDebt.Round(2).Equal(paid.Round(2)), "debt %s, paid %s", loanDebt, paid)
		if out {
			assert.Zero(t, payments)
		} else {
			assert.GreaterOrEqual(t, payments, 1)
		}
		loans++
	}
	require.NoError(t, rows.Err())
	rows.Close()
	assert.Equal(t, 80, loans)

	stats, err := NewSeeder(adapter, cfg).Purge(ctx, &manifest.Manifest{
		PublisherIDs: rc.PublisherIDs,
		AuthorIDs:    rc.AuthorIDs,
		BookIDs:      rc.BookIDs,
		UserIDs:      rc.UserIDs,
		StudentIDs:   rc.StudentIDs,
		LoanIDs:      rc.LoanIDs,
	})
	require.NoError(t, err)
	assert.Equal(t, 80, stats["loan"])

	for _, table := range []string{"payment", "loan", "student", "user_account", "book", "author", "publisher"} {
		assert.Zero(t, count(t, adapter, table), "table %s", table)
	}
	assert.Equal(t, 3, count(t, adapter, "degree"))
}

func TestSQLiteAtomicRollback(t *testing.T) {
	adapter := openSQLite(t)

	cfg := testConfig(t)
	cfg.Atomic = true
	require.NoError(t, adapter.Exec(context.Background(),
		"INSERT INTO user_account (email, password, name, cui, role_id, is_approved, email_verified) "+
			"SELECT 'student4@cunoc.edu.gt', 'x', 'Taken', 1, id, 1, 1 FROM role WHERE name = 'STUDENT'"))

	_, err := NewSeeder(adapter, cfg).Run(context.Background())
	require.ErrorIs(t, err, ErrInsertFailure)

	assert.Zero(t, count(t, adapter, "publisher"))
	assert.Zero(t, count(t, adapter, "book"))
	assert.Equal(t, 1, count(t, adapter, "user_account"))
}
