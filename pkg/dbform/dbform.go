// Package dbform turns a cached table schema into a list of input fields
// and collects typed values back out of them. It is deliberately free of
// any rendering concern; the terminal UI draws the fields, this package
// owns their meaning.
package dbform

import (
	"errors"

	"github.com/Riyan-Almaiman/rust-db/pkg/dbcache"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbproto"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbvalue"
)

// ErrNoColumns: an update form was submitted with nothing included. Caught
// locally, before any command is built.
var ErrNoColumns = errors.New("no columns selected for update")

// Field is one input control bound to a column. It carries the column name
// and type itself so value collection never re-consults the schema.
type Field struct {
	Column dbproto.Column

	// Text holds the entered value for int and text columns.
	Text string
	// Checked holds the toggle state for bool columns.
	Checked bool
	// Include marks the field as part of the outgoing update set. Only
	// meaningful on fields built by Update.
	Include bool
}

// Value coerces the control state to the column's type.
func (f Field) Value() interface{} {
	return dbvalue.Coerce(f.Column.Type, f.Text, f.Checked)
}

// Insert builds one field per column in schema order. An empty schema
// yields no fields; the caller simply has nothing to render yet.
func Insert(schema dbcache.TableSchema) []Field {
	fields := make([]Field, 0, len(schema))
	for _, col := range schema {
		fields = append(fields, Field{Column: col})
	}
	return fields
}

// Update builds fields like Insert, each additionally carrying an Include
// toggle so the user can update a subset of columns. All toggles start
// off.
func Update(schema dbcache.TableSchema) []Field {
	return Insert(schema)
}

// Values collects the positional value list for an insert command.
func Values(fields []Field) []interface{} {
	values := make([]interface{}, len(fields))
	for i, f := range fields {
		values[i] = f.Value()
	}
	return values
}

// Changes collects the update set from the included fields. Zero included
// fields is a user error, reported here and never sent anywhere.
func Changes(fields []Field) (map[string]interface{}, error) {
	changes := make(map[string]interface{})
	for _, f := range fields {
		if f.Include {
			changes[f.Column.Name] = f.Value()
		}
	}
	if len(changes) == 0 {
		return nil, ErrNoColumns
	}
	return changes, nil
}
