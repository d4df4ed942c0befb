package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"
)

// fakeCall — запрос, который получило тестовое соединение.
type fakeCall struct {
	query string
	args  []driver.Value
}

// fakeConn имитирует соединение Postgres: запоминает Exec-запросы
// и отвечает на Query заранее подготовленными строками.
type fakeConn struct {
	mu      sync.Mutex
	execs   []fakeCall
	queries []fakeCall
	rows    func(query string) *fakeRows
	execErr error
}

type fakeConnector struct{ conn *fakeConn }

type fakeDriver struct{}

type fakeRows struct {
	columns []string
	data    [][]driver.Value
	idx     int
}

type fakeResult struct{}

func (c fakeConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (fakeConnector) Driver() driver.Driver                         { return fakeDriver{} }

func (fakeDriver) Open(string) (driver.Conn, error) { return nil, errors.New("not implemented") }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("not implemented")
}
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("not implemented") }

func (c *fakeConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, fakeCall{query: query, args: values(args)})
	if c.rows == nil {
		return &fakeRows{}, nil
	}
	return c.rows(query), nil
}

func (c *fakeConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.execErr != nil {
		return nil, c.execErr
	}
	c.execs = append(c.execs, fakeCall{query: query, args: values(args)})
	return fakeResult{}, nil
}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 1, nil }

func (r *fakeRows) Columns() []string { return r.columns }
func (r *fakeRows) Close() error      { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.idx])
	r.idx++
	return nil
}

func values(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a.Value
	}
	return out
}

// newFakeDB создаёт DB поверх тестового соединения.
func newFakeDB(t *testing.T, conn *fakeConn) *DB {
	t.Helper()
	sqlDB := sql.OpenDB(fakeConnector{conn: conn})
	t.Cleanup(func() { sqlDB.Close() })
	return NewDB(sqlDB)
}
