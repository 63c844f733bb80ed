package dbops

import (
	"testing"

	"github.com/Riyan-Almaiman/rust-db/pkg/dbproto"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbvalue"
)

// fakeCaller records the last command and replies ok.
type fakeCaller struct {
	calls int
	last  interface{}
}

func (f *fakeCaller) Do(cmd interface{}) (*dbproto.Response, error) {
	f.calls++
	f.last = cmd
	return &dbproto.Response{OK: true}, nil
}

func TestLocalValidationNeverReachesTheWire(t *testing.T) {
	fake := &fakeCaller{}
	db := New(fake)

	cases := []struct {
		name string
		run  func() (*dbproto.Response, error)
	}{
		{"createTable empty name", func() (*dbproto.Response, error) {
			return db.CreateTable("", []dbproto.Column{{Name: "a", Type: dbvalue.TypeInt}})
		}},
		{"createTable no columns", func() (*dbproto.Response, error) {
			return db.CreateTable("t", nil)
		}},
		{"insert empty name", func() (*dbproto.Response, error) {
			return db.Insert("", []interface{}{int64(1)})
		}},
		{"update empty name", func() (*dbproto.Response, error) {
			return db.Update("", 1, map[string]interface{}{"a": int64(1)})
		}},
		{"update zero row id", func() (*dbproto.Response, error) {
			return db.Update("t", 0, map[string]interface{}{"a": int64(1)})
		}},
		{"update empty set", func() (*dbproto.Response, error) {
			return db.Update("t", 1, nil)
		}},
		{"selectAll empty name", func() (*dbproto.Response, error) {
			return db.SelectAll("")
		}},
	}

	for _, c := range cases {
		resp, err := c.run()
		if err != nil {
			t.Errorf("%s: unexpected transport error %v", c.name, err)
			continue
		}
		if resp.OK || resp.Error == "" {
			t.Errorf("%s: expected local validation failure, got %#v", c.name, resp)
		}
	}

	if fake.calls != 0 {
		t.Errorf("validation failures sent %d commands", fake.calls)
	}
}

func TestOperationsDelegate(t *testing.T) {
	fake := &fakeCaller{}
	db := New(fake)

	if _, err := db.CreateTable("users", []dbproto.Column{{Name: "name", Type: dbvalue.TypeText}}); err != nil {
		t.Fatal(err)
	}
	cmd, ok := fake.last.(dbproto.CreateTable)
	if !ok || cmd.Table != "users" || len(cmd.Columns) != 1 {
		t.Errorf("createTable command = %#v", fake.last)
	}

	if _, err := db.Insert("users", []interface{}{"Alice"}); err != nil {
		t.Fatal(err)
	}
	if ins, ok := fake.last.(dbproto.Insert); !ok || ins.Table != "users" {
		t.Errorf("insert command = %#v", fake.last)
	}

	if _, err := db.Update("users", 1, map[string]interface{}{"name": "Bob"}); err != nil {
		t.Fatal(err)
	}
	if upd, ok := fake.last.(dbproto.Update); !ok || upd.RowID != 1 {
		t.Errorf("update command = %#v", fake.last)
	}

	if _, err := db.SelectAll("users"); err != nil {
		t.Fatal(err)
	}
	if _, ok := fake.last.(dbproto.SelectAll); !ok {
		t.Errorf("selectAll command = %#v", fake.last)
	}

	if _, err := db.GetTables(); err != nil {
		t.Fatal(err)
	}
	if _, ok := fake.last.(dbproto.GetTables); !ok {
		t.Errorf("getTables command = %#v", fake.last)
	}

	if fake.calls != 5 {
		t.Errorf("calls = %d, want 5", fake.calls)
	}
}
