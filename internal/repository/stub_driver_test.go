package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

// recordedQuery 驱动收到的一条语句
type recordedQuery struct {
	query string
	args  []driver.Value
}

// stubResult 依次返回给查询的结果
type stubResult struct {
	columns []string
	rows    [][]driver.Value
	err     error
}

// stubDriver 记录语句并按顺序返回预设结果
type stubDriver struct {
	mu       sync.Mutex
	queries  []recordedQuery
	results  []stubResult
	execErr  error
	affected int64
}

func newStubDB(t *testing.T, d *stubDriver) *sql.DB {
	t.Helper()
	db := sql.OpenDB(d)
	t.Cleanup(func() { db.Close() })
	return db
}

func columnsOf(list string) []string {
	return strings.Split(list, ", ")
}

func (d *stubDriver) Connect(context.Context) (driver.Conn, error) { return &stubConn{d: d}, nil }

func (d *stubDriver) Driver() driver.Driver { return d }

func (d *stubDriver) Open(string) (driver.Conn, error) { return &stubConn{d: d}, nil }

func (d *stubDriver) record(query string, args []driver.NamedValue) {
	vals := make([]driver.Value, len(args))
	for i, a := range args {
		vals[i] = a.Value
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries = append(d.queries, recordedQuery{query: query, args: vals})
}

func (d *stubDriver) next() stubResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.results) == 0 {
		return stubResult{}
	}
	r := d.results[0]
	d.results = d.results[1:]
	return r
}

func (d *stubDriver) query(t *testing.T, i int) recordedQuery {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.queries) {
		t.Fatalf("expected at least %d statements, got %d", i+1, len(d.queries))
	}
	return d.queries[i]
}

type stubConn struct {
	d *stubDriver
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *stubConn) Close() error { return nil }

func (c *stubConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *stubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.d.record(query, args)
	r := c.d.next()
	if r.err != nil {
		return nil, r.err
	}
	return &stubRows{columns: r.columns, rows: r.rows}, nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.d.record(query, args)
	if c.d.execErr != nil {
		return nil, c.d.execErr
	}
	return driver.RowsAffected(c.d.affected), nil
}

type stubRows struct {
	columns []string
	rows    [][]driver.Value
	pos     int
}

func (r *stubRows) Columns() []string { return r.columns }

func (r *stubRows) Close() error { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}
