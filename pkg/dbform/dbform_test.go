package dbform

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Riyan-Almaiman/rust-db/pkg/dbcache"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbvalue"
)

var usersSchema = dbcache.TableSchema{
	{Name: "name", Type: dbvalue.TypeText},
	{Name: "age", Type: dbvalue.TypeInt},
	{Name: "active", Type: dbvalue.TypeBool},
}

func TestInsertFieldsFollowSchemaOrder(t *testing.T) {
	fields := Insert(usersSchema)
	if len(fields) != 3 {
		t.Fatalf("fields = %d", len(fields))
	}
	for i, col := range usersSchema {
		if fields[i].Column != col {
			t.Errorf("field %d bound to %v, want %v", i, fields[i].Column, col)
		}
	}

	if got := Insert(nil); len(got) != 0 {
		t.Errorf("empty schema produced %d fields", len(got))
	}
}

func TestValuesCoercePerColumnType(t *testing.T) {
	fields := Insert(usersSchema)
	fields[0].Text = "Alice"
	fields[1].Text = "30"
	fields[2].Checked = true

	want := []interface{}{"Alice", int64(30), true}
	if got := Values(fields); !reflect.DeepEqual(got, want) {
		t.Errorf("Values = %#v", got)
	}

	// lenient int fallback applies here too
	fields[1].Text = "not a number"
	if got := Values(fields); got[1] != int64(0) {
		t.Errorf("bad int input coerced to %#v, want 0", got[1])
	}
}

func TestChangesRequiresInclusion(t *testing.T) {
	fields := Update(usersSchema)
	fields[1].Text = "31"

	// nothing included: local error, nothing to send
	if _, err := Changes(fields); !errors.Is(err, ErrNoColumns) {
		t.Fatalf("err = %v, want ErrNoColumns", err)
	}

	fields[1].Include = true
	changes, err := Changes(fields)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(changes, map[string]interface{}{"age": int64(31)}) {
		t.Errorf("changes = %#v", changes)
	}

	// excluded fields stay out even when filled in
	fields[0].Text = "Bob"
	changes, err = Changes(fields)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := changes["name"]; ok {
		t.Error("excluded column leaked into the update set")
	}
}
