package seeder

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/Lumos-Labs-HQ/libseed/internal/database"
	"github.com/Masterminds/squirrel"
)

var errInjected = errors.New("injected failure")

var (
	insertRe = regexp.MustCompile(`^INSERT INTO (\w+) \(([^)]*)\) VALUES \(([^)]*)\)(?: RETURNING (\w+))?$`)
	selectRe = regexp.MustCompile(`^SELECT (.+?) FROM (\w+)(?: WHERE (.+?))?(?: LIMIT (\d+))?$`)
	deleteRe = regexp.MustCompile(`^DELETE FROM (\w+) WHERE (.+?)(?: RETURNING (\w+))?$`)
	inRe     = regexp.MustCompile(`^(\w+) IN \(([?,]+)\)$`)
	eqRe     = regexp.MustCompile(`^(\w+) = \?$`)
)

type tables map[string][]map[string]any

func (t tables) clone() tables {
	c := make(tables, len(t))
	for name, rows := range t {
		c[name] = append([]map[string]any(nil), rows...)
	}
	return c
}

// fakeDB is an in-memory adapter understanding the statements the seeder
// builds. Writes inside a transaction only become visible on commit.
type fakeDB struct {
	committed  tables
	seq        int
	inserts    map[string]int
	failInsert map[string]int // table -> 1-based insert attempt that fails
	statements []string
	commits    int
	rollbacks  int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		committed:  make(tables),
		inserts:    make(map[string]int),
		failInsert: make(map[string]int),
	}
}

// withReference adds the STUDENT role and the given number of degrees.
func (f *fakeDB) withReference(degrees int) *fakeDB {
	f.committed["role"] = append(f.committed["role"],
		map[string]any{"id": "role-admin", "name": "ADMIN"},
		map[string]any{"id": "role-student", "name": "STUDENT"},
	)
	for i := 1; i <= degrees; i++ {
		f.committed["degree"] = append(f.committed["degree"], map[string]any{"id": fmt.Sprintf("degree-%d", i)})
	}
	return f
}

func (f *fakeDB) rows(table string) []map[string]any {
	return f.committed[table]
}

func (f *fakeDB) Connect(context.Context, string) error { return nil }
func (f *fakeDB) Close() error                          { return nil }
func (f *fakeDB) Ping(context.Context) error            { return nil }

func (f *fakeDB) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder
}

func (f *fakeDB) Begin(context.Context) (database.Tx, error) {
	return &fakeTx{db: f, state: f.committed.clone()}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, query string, args ...any) database.Row {
	return f.queryRow(f.committed, query, args)
}

func (f *fakeDB) Query(_ context.Context, query string, args ...any) (database.Rows, error) {
	return f.query(f.committed, query, args)
}

func (f *fakeDB) Exec(_ context.Context, query string, args ...any) error {
	_, err := f.exec(f.committed, query, args)
	return err
}

type fakeTx struct {
	db    *fakeDB
	state tables
	done  bool
}

func (t *fakeTx) QueryRow(_ context.Context, query string, args ...any) database.Row {
	return t.db.queryRow(t.state, query, args)
}

func (t *fakeTx) Query(_ context.Context, query string, args ...any) (database.Rows, error) {
	return t.db.query(t.state, query, args)
}

func (t *fakeTx) Exec(_ context.Context, query string, args ...any) error {
	_, err := t.db.exec(t.state, query, args)
	return err
}

func (t *fakeTx) Commit(context.Context) error {
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true
	t.db.committed = t.state
	t.db.commits++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.db.rollbacks++
	return nil
}

func (f *fakeDB) queryRow(state tables, query string, args []any) database.Row {
	result, err := f.exec(state, query, args)
	if err != nil {
		return fakeRow{err: err}
	}
	if len(result) == 0 {
		return fakeRow{err: database.ErrNoRows}
	}
	return fakeRow{values: result[0]}
}

func (f *fakeDB) query(state tables, query string, args []any) (database.Rows, error) {
	result, err := f.exec(state, query, args)
	if err != nil {
		return nil, err
	}
	return &fakeRows{rows: result, pos: -1}, nil
}

// exec runs query against state and returns the projected rows, if any.
func (f *fakeDB) exec(state tables, query string, args []any) ([][]any, error) {
	f.statements = append(f.statements, query)

	if m := insertRe.FindStringSubmatch(query); m != nil {
		table, columns := m[1], strings.Split(m[2], ",")
		if len(columns) != len(args) {
			return nil, fmt.Errorf("fake: %d columns but %d args", len(columns), len(args))
		}
		f.inserts[table]++
		if n, ok := f.failInsert[table]; ok && n == f.inserts[table] {
			return nil, errInjected
		}
		f.seq++
		row := map[string]any{"id": fmt.Sprintf("%s-%04d", table, f.seq)}
		for i, col := range columns {
			row[col] = args[i]
		}
		state[table] = append(state[table], row)
		if m[4] == "" {
			return nil, nil
		}
		return [][]any{{row[m[4]]}}, nil
	}

	if m := selectRe.FindStringSubmatch(query); m != nil {
		columns := strings.Split(m[1], ", ")
		pred, err := compileWhere(m[3], args)
		if err != nil {
			return nil, err
		}
		limit := -1
		if m[4] != "" {
			limit, _ = strconv.Atoi(m[4])
		}
		var result [][]any
		for _, row := range state[m[2]] {
			if limit >= 0 && len(result) == limit {
				break
			}
			if pred(row) {
				result = append(result, project(row, columns))
			}
		}
		return result, nil
	}

	if m := deleteRe.FindStringSubmatch(query); m != nil {
		pred, err := compileWhere(m[2], args)
		if err != nil {
			return nil, err
		}
		var kept []map[string]any
		var result [][]any
		for _, row := range state[m[1]] {
			if pred(row) {
				result = append(result, []any{row["id"]})
				continue
			}
			kept = append(kept, row)
		}
		state[m[1]] = kept
		return result, nil
	}

	return nil, fmt.Errorf("fake: unsupported statement %q", query)
}

func project(row map[string]any, columns []string) []any {
	values := make([]any, len(columns))
	for i, col := range columns {
		values[i] = row[col]
	}
	return values
}

// compileWhere understands "col = ?", "col IN (?,..)", "(1=0)" and OR/AND
// combinations of them.
func compileWhere(where string, args []any) (func(map[string]any) bool, error) {
	if where == "" {
		if len(args) != 0 {
			return nil, fmt.Errorf("fake: %d args without WHERE", len(args))
		}
		return func(map[string]any) bool { return true }, nil
	}

	pred, used, err := compileExpr(where, args)
	if err != nil {
		return nil, err
	}
	if used != len(args) {
		return nil, fmt.Errorf("fake: WHERE %q used %d of %d args", where, used, len(args))
	}
	return pred, nil
}

func compileExpr(expr string, args []any) (func(map[string]any) bool, int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "(1=0)" {
		return func(map[string]any) bool { return false }, 0, nil
	}

	for _, sep := range []string{" OR ", " AND "} {
		inner := expr
		if strings.HasPrefix(inner, "(") && strings.HasSuffix(inner, ")") && strings.Contains(inner, sep) {
			inner = inner[1 : len(inner)-1]
		}
		if !strings.Contains(inner, sep) {
			continue
		}
		var preds []func(map[string]any) bool
		used := 0
		for _, part := range strings.Split(inner, sep) {
			p, n, err := compileExpr(part, args[used:])
			if err != nil {
				return nil, 0, err
			}
			preds = append(preds, p)
			used += n
		}
		or := sep == " OR "
		return func(row map[string]any) bool {
			for _, p := range preds {
				if p(row) == or {
					return or
				}
			}
			return !or
		}, used, nil
	}

	if m := eqRe.FindStringSubmatch(expr); m != nil {
		col, want := m[1], args[0]
		return func(row map[string]any) bool { return row[col] == want }, 1, nil
	}
	if m := inRe.FindStringSubmatch(expr); m != nil {
		n := strings.Count(m[2], "?")
		col, set := m[1], args[:n]
		return func(row map[string]any) bool {
			for _, v := range set {
				if row[col] == v {
					return true
				}
			}
			return false
		}, n, nil
	}
	return nil, 0, fmt.Errorf("fake: unsupported condition %q", expr)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.values, dest)
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanInto(r.rows[r.pos], dest)
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}

func scanInto(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("fake: scanning %d values into %d targets", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		val := reflect.ValueOf(v)
		if !val.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("fake: cannot scan %T into %s", v, target.Type())
		}
		target.Set(val)
	}
	return nil
}
