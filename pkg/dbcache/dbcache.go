// Package dbcache keeps the client-side copy of every table's schema. The
// cache drives form generation and result-table layout, so column order
// must survive exactly as the service reports it.
package dbcache

import (
	"errors"
	"fmt"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/Riyan-Almaiman/rust-db/pkg/dbproto"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbvalue"
)

// TableSchema is the ordered column list of one table.
type TableSchema []dbproto.Column

// Lister issues the table listing operation.
type Lister interface {
	GetTables() (*dbproto.Response, error)
}

// Cache maps table name to schema. It starts empty and is replaced
// wholesale on every successful Refresh, never patched incrementally.
type Cache struct {
	lister Lister

	mu     sync.Mutex
	names  []string
	tables cmap.ConcurrentMap[string, TableSchema]
}

func New(l Lister) *Cache {
	return &Cache{
		lister: l,
		tables: cmap.New[TableSchema](),
	}
}

// Refresh rebuilds the whole mapping from a fresh table listing. The
// service reports one row per column, grouped implicitly by table; arrival
// order becomes column order. On any failure the previous cache contents
// stay in place.
func (c *Cache) Refresh() error {
	resp, err := c.lister.GetTables()
	if err != nil {
		return err
	}
	if !resp.OK {
		return errors.New(resp.Error)
	}

	fresh := cmap.New[TableSchema]()
	var names []string
	for _, row := range resp.Rows {
		table, _ := row[dbproto.FieldTableName].(string)
		column, _ := row[dbproto.FieldColumnName].(string)
		typeName, _ := row[dbproto.FieldColumnType].(string)
		if table == "" || column == "" {
			return fmt.Errorf("malformed table listing row: %v", row)
		}
		typ, err := dbvalue.ParseColumnType(typeName)
		if err != nil {
			return fmt.Errorf("table %q column %q: %w", table, column, err)
		}
		schema, ok := fresh.Get(table)
		if !ok {
			names = append(names, table)
		}
		fresh.Set(table, append(schema, dbproto.Column{Name: column, Type: typ}))
	}

	c.mu.Lock()
	c.tables = fresh
	c.names = names
	c.mu.Unlock()
	return nil
}

// Lookup returns the schema of a table, empty for unknown tables.
func (c *Cache) Lookup(table string) TableSchema {
	c.mu.Lock()
	tables := c.tables
	c.mu.Unlock()

	schema, _ := tables.Get(table)
	return schema
}

// Tables lists the known table names in first-seen order.
func (c *Cache) Tables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}
