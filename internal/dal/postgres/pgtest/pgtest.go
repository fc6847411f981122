// Package pgtest provides a recording postgres.Conn for repository tests.
// It never talks to a database: statements are captured as rendered SQL with
// their arguments, and queued rows are replayed to Query and QueryRow.
package pgtest

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sync"

	"github.com/corray333/backend-labs/food-ordering/internal/dal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ postgres.Conn = (*Conn)(nil)

// Call is one statement sent through the connection.
type Call struct {
	SQL  string
	Args []any
}

type result struct {
	rows [][]any
	err  error
}

// Conn records statements. Query and QueryRow consume queued results in order;
// with nothing queued Query yields no rows and QueryRow yields pgx.ErrNoRows.
type Conn struct {
	// RowsAffected is reported by every Exec.
	RowsAffected int64
	// ExecErr, when set, is returned by every Exec.
	ExecErr error

	mu      sync.Mutex
	calls   []Call
	results []result
}

// Push queues the rows returned by the next Query or QueryRow.
func (c *Conn) Push(rows ...[]any) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result{rows: rows})

	return c
}

// PushErr makes the next Query or QueryRow fail with err.
func (c *Conn) PushErr(err error) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result{err: err})

	return c
}

// Calls returns the recorded statements.
func (c *Conn) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Call(nil), c.calls...)
}

func (c *Conn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.record(sql, args)
	if c.ExecErr != nil {
		return pgconn.CommandTag{}, c.ExecErr
	}

	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", c.RowsAffected)), nil
}

func (c *Conn) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.record(sql, args)
	res := c.next()
	if res.err != nil {
		return nil, res.err
	}

	return &rows{data: res.rows, pos: -1}, nil
}

func (c *Conn) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	c.record(sql, args)

	return row{res: c.next()}
}

func (c *Conn) record(sql string, args []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{SQL: sql, Args: args})
}

func (c *Conn) next() result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.results) == 0 {
		return result{}
	}
	res := c.results[0]
	c.results = c.results[1:]

	return res
}

type row struct {
	res result
}

func (r row) Scan(dest ...any) error {
	if r.res.err != nil {
		return r.res.err
	}
	if len(r.res.rows) == 0 {
		return pgx.ErrNoRows
	}

	return scan(r.res.rows[0], dest)
}

type rows struct {
	data [][]any
	pos  int
}

func (r *rows) Close()                                       {}
func (r *rows) Err() error                                   { return nil }
func (r *rows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *rows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *rows) Conn() *pgx.Conn                              { return nil }

func (r *rows) Next() bool {
	r.pos++

	return r.pos < len(r.data)
}

func (r *rows) Scan(dest ...any) error {
	return scan(r.data[r.pos], dest)
}

func (r *rows) Values() ([]any, error) {
	return append([]any(nil), r.data[r.pos]...), nil
}

func (r *rows) RawValues() [][]byte {
	return make([][]byte, len(r.data[r.pos]))
}

func scan(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("row has %d values, scan got %d destinations", len(values), len(dest))
	}
	for i, d := range dest {
		if err := assign(d, values[i]); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}

	return nil
}

func assign(dest, src any) error {
	if s, ok := dest.(sql.Scanner); ok {
		return s.Scan(src)
	}

	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("destination %T is not a pointer", dest)
	}
	target := dv.Elem()
	if src == nil {
		target.Set(reflect.Zero(target.Type()))

		return nil
	}

	sv := reflect.ValueOf(src)
	switch {
	case sv.Type().AssignableTo(target.Type()):
		target.Set(sv)
	case target.Kind() == reflect.Ptr && sv.Type().AssignableTo(target.Type().Elem()):
		p := reflect.New(target.Type().Elem())
		p.Elem().Set(sv)
		target.Set(p)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dest)
	}

	return nil
}
