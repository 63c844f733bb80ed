// Package dbops is the typed command surface of the service: one function
// per operation, each validating its local preconditions before anything
// touches the wire. Validation failures come back as ordinary
// {ok:false, error} responses and never consume the request slot.
package dbops

import (
	"github.com/Riyan-Almaiman/rust-db/pkg/dbproto"
)

// Caller sends one command and blocks for its response.
type Caller interface {
	Do(cmd interface{}) (*dbproto.Response, error)
}

// DB wraps a connected client with the service's operations.
type DB struct {
	caller Caller
}

func New(c Caller) *DB {
	return &DB{caller: c}
}

func localError(msg string) *dbproto.Response {
	return &dbproto.Response{OK: false, Error: msg}
}

// CreateTable declares a new table with at least one column.
func (db *DB) CreateTable(table string, columns []dbproto.Column) (*dbproto.Response, error) {
	if table == "" {
		return localError("table name is required"), nil
	}
	if len(columns) == 0 {
		return localError("at least one column is required"), nil
	}
	return db.caller.Do(dbproto.NewCreateTable(table, columns))
}

// Insert adds one row with values positional in column order.
func (db *DB) Insert(table string, values []interface{}) (*dbproto.Response, error) {
	if table == "" {
		return localError("table name is required"), nil
	}
	return db.caller.Do(dbproto.NewInsert(table, values))
}

// Update rewrites the given columns of one row. Row ids start at 1; an
// empty update set is a caller mistake and never goes on the wire.
func (db *DB) Update(table string, rowID uint64, updates map[string]interface{}) (*dbproto.Response, error) {
	if table == "" {
		return localError("table name is required"), nil
	}
	if rowID == 0 {
		return localError("row id is required"), nil
	}
	if len(updates) == 0 {
		return localError("no columns selected for update"), nil
	}
	return db.caller.Do(dbproto.NewUpdate(table, rowID, updates))
}

// SelectAll fetches every row of a table.
func (db *DB) SelectAll(table string) (*dbproto.Response, error) {
	if table == "" {
		return localError("table name is required"), nil
	}
	return db.caller.Do(dbproto.NewSelectAll(table))
}

// GetTables lists all tables, one result row per column.
func (db *DB) GetTables() (*dbproto.Response, error) {
	return db.caller.Do(dbproto.NewGetTables())
}
