package dbcache

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Riyan-Almaiman/rust-db/pkg/dbproto"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbvalue"
)

type fakeLister struct {
	resp *dbproto.Response
	err  error
}

func (f *fakeLister) GetTables() (*dbproto.Response, error) {
	return f.resp, f.err
}

func listing(rows ...[3]string) *dbproto.Response {
	out := make([]dbproto.Row, len(rows))
	for i, r := range rows {
		out[i] = dbproto.Row{
			dbproto.FieldRowID:      int64(i + 1),
			dbproto.FieldTableName:  r[0],
			dbproto.FieldColumnName: r[1],
			dbproto.FieldColumnType: r[2],
		}
	}
	return &dbproto.Response{
		OK:      true,
		Columns: []string{dbproto.FieldTableName, dbproto.FieldColumnName, dbproto.FieldColumnType},
		Rows:    out,
	}
}

func TestRefreshPreservesColumnOrder(t *testing.T) {
	lister := &fakeLister{resp: listing(
		[3]string{"t", "a", "int"},
		[3]string{"t", "b", "text"},
	)}
	cache := New(lister)

	if err := cache.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	want := TableSchema{
		{Name: "a", Type: dbvalue.TypeInt},
		{Name: "b", Type: dbvalue.TypeText},
	}
	if got := cache.Lookup("t"); !reflect.DeepEqual(got, want) {
		t.Errorf("Lookup(t) = %#v", got)
	}
	if got := cache.Lookup("unknown"); len(got) != 0 {
		t.Errorf("Lookup(unknown) = %#v, want empty", got)
	}
}

func TestRefreshReplacesWholesale(t *testing.T) {
	lister := &fakeLister{resp: listing(
		[3]string{"old", "a", "int"},
		[3]string{"keep", "b", "bool"},
	)}
	cache := New(lister)
	if err := cache.Refresh(); err != nil {
		t.Fatal(err)
	}
	if got := cache.Tables(); !reflect.DeepEqual(got, []string{"old", "keep"}) {
		t.Errorf("Tables() = %v", got)
	}

	lister.resp = listing([3]string{"keep", "b", "bool"})
	if err := cache.Refresh(); err != nil {
		t.Fatal(err)
	}

	if got := cache.Lookup("old"); len(got) != 0 {
		t.Errorf("stale table survived refresh: %#v", got)
	}
	if got := cache.Tables(); !reflect.DeepEqual(got, []string{"keep"}) {
		t.Errorf("Tables() = %v", got)
	}
}

func TestRefreshFailureKeepsOldContents(t *testing.T) {
	lister := &fakeLister{resp: listing([3]string{"t", "a", "int"})}
	cache := New(lister)
	if err := cache.Refresh(); err != nil {
		t.Fatal(err)
	}

	lister.resp = nil
	lister.err = errors.New("boom")
	if err := cache.Refresh(); err == nil {
		t.Fatal("expected refresh error")
	}
	if got := cache.Lookup("t"); len(got) != 1 {
		t.Errorf("old contents lost on failed refresh: %#v", got)
	}

	lister.err = nil
	lister.resp = &dbproto.Response{OK: false, Error: "Table not found"}
	if err := cache.Refresh(); err == nil || err.Error() != "Table not found" {
		t.Errorf("remote error not surfaced: %v", err)
	}

	lister.resp = listing([3]string{"t", "a", "float"})
	if err := cache.Refresh(); err == nil {
		t.Error("unknown column type accepted")
	}
	if got := cache.Lookup("t"); len(got) != 1 {
		t.Errorf("old contents lost on malformed listing: %#v", got)
	}
}

func TestEmptyCacheAtStartup(t *testing.T) {
	cache := New(&fakeLister{})
	if got := cache.Tables(); len(got) != 0 {
		t.Errorf("Tables() = %v, want none", got)
	}
	if got := cache.Lookup("t"); len(got) != 0 {
		t.Errorf("Lookup(t) = %#v, want empty", got)
	}
}
