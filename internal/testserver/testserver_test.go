package testserver

import (
	"encoding/json"
	"testing"

	"github.com/Riyan-Almaiman/rust-db/pkg/dbproto"
)

func exec(t *testing.T, s *Server, cmd interface{}) *dbproto.Response {
	t.Helper()
	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return s.execute(data)
}

func TestServiceSemantics(t *testing.T) {
	s := Start()
	defer s.Close()

	users := []dbproto.Column{
		{Name: "name", Type: "text"},
		{Name: "age", Type: "int"},
	}

	if resp := exec(t, s, dbproto.NewCreateTable("users", users)); !resp.OK {
		t.Fatalf("createTable: %#v", resp)
	}
	if resp := exec(t, s, dbproto.NewCreateTable("users", users)); resp.OK || resp.Error != "Table already exists" {
		t.Fatalf("duplicate createTable: %#v", resp)
	}

	if resp := exec(t, s, dbproto.NewInsert("missing", []interface{}{"x"})); resp.Error != "Table not found" {
		t.Fatalf("insert into missing table: %#v", resp)
	}
	if resp := exec(t, s, dbproto.NewInsert("users", []interface{}{"Alice"})); resp.Error != "Column count mismatch" {
		t.Fatalf("short insert: %#v", resp)
	}
	if resp := exec(t, s, dbproto.NewInsert("users", []interface{}{"Alice", "thirty"})); resp.Error != "Type mismatch for column age" {
		t.Fatalf("mistyped insert: %#v", resp)
	}
	if resp := exec(t, s, dbproto.NewInsert("users", []interface{}{"Alice", int64(30)})); !resp.OK {
		t.Fatalf("insert: %#v", resp)
	}

	if resp := exec(t, s, dbproto.NewUpdate("users", 2, map[string]interface{}{"age": int64(1)})); resp.Error != "Row not found" {
		t.Fatalf("update missing row: %#v", resp)
	}
	if resp := exec(t, s, dbproto.NewUpdate("users", 1, map[string]interface{}{"nope": int64(1)})); resp.Error != "Column not found" {
		t.Fatalf("update missing column: %#v", resp)
	}

	listing := exec(t, s, dbproto.NewGetTables())
	if !listing.OK || len(listing.Rows) != 2 {
		t.Fatalf("getTables: %#v", listing)
	}
	first := listing.Rows[0]
	if first[dbproto.FieldTableName] != "users" || first[dbproto.FieldColumnName] != "name" || first[dbproto.FieldColumnType] != "text" {
		t.Fatalf("listing row = %#v", first)
	}

	if resp := s.execute([]byte(`{"type":"dropTable","table":"users"}`)); resp.OK {
		t.Fatalf("unknown command accepted: %#v", resp)
	}
	if resp := s.execute([]byte(`not json`)); resp.OK {
		t.Fatalf("bad payload accepted: %#v", resp)
	}
}

func TestSelectAllOrdersByRowID(t *testing.T) {
	s := Start()
	defer s.Close()

	exec(t, s, dbproto.NewCreateTable("t", []dbproto.Column{{Name: "n", Type: "int"}}))
	for i := int64(1); i <= 3; i++ {
		exec(t, s, dbproto.NewInsert("t", []interface{}{i * 10}))
	}

	resp := exec(t, s, dbproto.NewSelectAll("t"))
	if !resp.OK || len(resp.Rows) != 3 {
		t.Fatalf("selectAll: %#v", resp)
	}
	for i, row := range resp.Rows {
		if row.ID() != uint64(i+1) {
			t.Errorf("row %d has id %d", i, row.ID())
		}
		if row["n"] != int64((i+1)*10) {
			t.Errorf("row %d value = %#v", i, row["n"])
		}
	}
}
