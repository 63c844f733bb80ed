package dbvalue

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		text string
		want interface{}
	}{
		{"true", true},
		{"false", false},
		{"42", int64(42)},
		{"-3", int64(-3)},
		{"+7", int64(7)},
		{"007", int64(7)},
		{"abc", "abc"},
		{"12abc", "12abc"},
		{"", ""},
		{"True", "True"},
		{"3.14", "3.14"},
		// too large for int64, stays text
		{"99999999999999999999", "99999999999999999999"},
	}

	for _, c := range cases {
		if got := Parse(c.text); got != c.want {
			t.Errorf("Parse(%q) = %#v, want %#v", c.text, got, c.want)
		}
	}
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		typ     ColumnType
		text    string
		checked bool
		want    interface{}
	}{
		{TypeBool, "ignored", true, true},
		{TypeBool, "ignored", false, false},
		{TypeInt, "42", false, int64(42)},
		{TypeInt, " 42 ", false, int64(42)},
		{TypeInt, "-3", false, int64(-3)},
		// lenient fallback: bad int input becomes 0, never an error
		{TypeInt, "abc", false, int64(0)},
		{TypeInt, "", false, int64(0)},
		{TypeText, "hello", false, "hello"},
		{TypeText, "", false, ""},
	}

	for _, c := range cases {
		if got := Coerce(c.typ, c.text, c.checked); got != c.want {
			t.Errorf("Coerce(%s, %q, %v) = %#v, want %#v", c.typ, c.text, c.checked, got, c.want)
		}
	}
}

func TestCoerceFormatRoundTrip(t *testing.T) {
	// a value coerced from a control and formatted back must read the same
	cases := []struct {
		typ  ColumnType
		text string
	}{
		{TypeInt, "42"},
		{TypeInt, "-3"},
		{TypeText, "Alice"},
	}

	for _, c := range cases {
		v := Coerce(c.typ, c.text, false)
		if got := Format(v); got != c.text {
			t.Errorf("Format(Coerce(%s, %q)) = %q", c.typ, c.text, got)
		}
		if again := Coerce(c.typ, Format(v), false); again != v {
			t.Errorf("round trip of %q through %s changed value: %#v", c.text, c.typ, again)
		}
	}

	if got := Format(Coerce(TypeBool, "", true)); got != "true" {
		t.Errorf("Format(bool true) = %q", got)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		v    interface{}
		want string
	}{
		{int64(42), "42"},
		{true, "true"},
		{false, "false"},
		{"x", "x"},
		{nil, ""},
		{float64(3), "3"},
	}
	for _, c := range cases {
		if got := Format(c.v); got != c.want {
			t.Errorf("Format(%#v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestDisplayStripsControlRunes(t *testing.T) {
	if got := Display("a\x1b[31mb\x00c"); got != "a[31mbc" {
		t.Errorf("Display = %q", got)
	}
	if got := Display("plain"); got != "plain" {
		t.Errorf("Display = %q", got)
	}
}

func TestParseColumnType(t *testing.T) {
	for _, name := range []string{"int", "bool", "text"} {
		typ, err := ParseColumnType(name)
		if err != nil || string(typ) != name {
			t.Errorf("ParseColumnType(%q) = %v, %v", name, typ, err)
		}
	}
	if _, err := ParseColumnType("float"); err == nil {
		t.Error("ParseColumnType accepted unknown type")
	}
}
