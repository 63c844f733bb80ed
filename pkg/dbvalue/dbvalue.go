package dbvalue

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ColumnType is the wire name of a column's value type.
type ColumnType string

const (
	TypeInt  ColumnType = "int"
	TypeBool ColumnType = "bool"
	TypeText ColumnType = "text"
)

// ParseColumnType validates a type name received from the service.
func ParseColumnType(s string) (ColumnType, error) {
	switch t := ColumnType(s); t {
	case TypeInt, TypeBool, TypeText:
		return t, nil
	default:
		return "", fmt.Errorf("unknown column type: %q", s)
	}
}

func (t ColumnType) String() string {
	return string(t)
}

var intPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)

// Parse guesses a typed value from free text when no schema is available.
// "true" and "false" become bool, optional-sign all-digit text becomes
// int64 (leading zeros collapse, so "007" parses to 7), everything else
// stays a string. Existing data was written through this heuristic, so its
// quirks are load-bearing.
func Parse(text string) interface{} {
	switch text {
	case "true":
		return true
	case "false":
		return false
	}
	if intPattern.MatchString(text) {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
	}
	return text
}

// Coerce converts the state of one form control to a typed value according
// to the column's declared type. Bool columns read the toggle, int columns
// parse the text and fall back to 0 when the text is not a number, text
// columns pass through unchanged. The 0 fallback is intentional lenient
// behavior, never an error.
func Coerce(typ ColumnType, text string, checked bool) interface{} {
	switch typ {
	case TypeBool:
		return checked
	case TypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return int64(0)
		}
		return n
	default:
		return text
	}
}

// Format stringifies any row value for display.
func Format(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Display is Format with non-printable runes removed, so a stored text
// value cannot smuggle terminal control sequences into rendered output.
func Display(v interface{}) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, Format(v))
}
