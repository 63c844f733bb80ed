// Package dbproto defines the JSON wire format spoken over the service's
// websocket endpoint: type-tagged command objects going out, one response
// object coming back per command.
package dbproto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Riyan-Almaiman/rust-db/pkg/dbvalue"
)

// Command type tags.
const (
	TypeCreateTable = "createTable"
	TypeInsert      = "insert"
	TypeUpdate      = "update"
	TypeSelectAll   = "selectAll"
	TypeGetTables   = "getTables"
)

// Field names of getTables result rows.
const (
	FieldTableName  = "table_name"
	FieldColumnName = "column_name"
	FieldColumnType = "column_type"
)

// FieldRowID is the synthetic identifier present in every result row.
const FieldRowID = "_id"

// Column is one column declaration of a table schema.
type Column struct {
	Name string
	Type dbvalue.ColumnType
}

// CreateTable declares a new table. Columns go on the wire as
// [name, type] pairs.
type CreateTable struct {
	Type    string      `json:"type"`
	Table   string      `json:"table"`
	Columns [][2]string `json:"columns"`
}

// Insert adds one row; values are positional in column order.
type Insert struct {
	Type   string        `json:"type"`
	Table  string        `json:"table"`
	Values []interface{} `json:"values"`
}

// Update rewrites the named columns of one row.
type Update struct {
	Type    string                 `json:"type"`
	Table   string                 `json:"table"`
	RowID   uint64                 `json:"rowId"`
	Updates map[string]interface{} `json:"updates"`
}

// SelectAll fetches every row of a table.
type SelectAll struct {
	Type  string `json:"type"`
	Table string `json:"table"`
}

// GetTables lists every table with its columns, one result row per column.
type GetTables struct {
	Type string `json:"type"`
}

func NewCreateTable(table string, columns []Column) CreateTable {
	pairs := make([][2]string, len(columns))
	for i, c := range columns {
		pairs[i] = [2]string{c.Name, string(c.Type)}
	}
	return CreateTable{Type: TypeCreateTable, Table: table, Columns: pairs}
}

func NewInsert(table string, values []interface{}) Insert {
	return Insert{Type: TypeInsert, Table: table, Values: values}
}

func NewUpdate(table string, rowID uint64, updates map[string]interface{}) Update {
	return Update{Type: TypeUpdate, Table: table, RowID: rowID, Updates: updates}
}

func NewSelectAll(table string) SelectAll {
	return SelectAll{Type: TypeSelectAll, Table: table}
}

func NewGetTables() GetTables {
	return GetTables{Type: TypeGetTables}
}

// Row is one result row: the synthetic _id plus one entry per declared
// column. The service only ever emits integers, strings and booleans, so
// decoding normalizes every JSON number to int64.
type Row map[string]interface{}

func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	raw := map[string]interface{}{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	for k, v := range raw {
		if n, ok := v.(json.Number); ok {
			i, err := n.Int64()
			if err != nil {
				return fmt.Errorf("row field %q: %w", k, err)
			}
			raw[k] = i
		}
	}
	*r = raw
	return nil
}

// ID returns the row's synthetic identifier, 0 when absent.
func (r Row) ID() uint64 {
	if id, ok := r[FieldRowID].(int64); ok && id > 0 {
		return uint64(id)
	}
	return 0
}

// Response is the reply to exactly one command.
type Response struct {
	OK      bool     `json:"ok"`
	Error   string   `json:"error,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Rows    []Row    `json:"rows,omitempty"`
}
