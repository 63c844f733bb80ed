package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Riyan-Almaiman/rust-db/pkg/dbcache"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbform"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbproto"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbvalue"
)

// columnTypes in the order the type toggle cycles through them.
var columnTypes = []dbvalue.ColumnType{dbvalue.TypeText, dbvalue.TypeInt, dbvalue.TypeBool}

func nextType(t dbvalue.ColumnType) dbvalue.ColumnType {
	for i, ct := range columnTypes {
		if ct == t {
			return columnTypes[(i+1)%len(columnTypes)]
		}
	}
	return columnTypes[0]
}

// createForm collects a new table's name and column declarations.
type createForm struct {
	name  textinput.Model
	cols  []createColumn
	focus int // 0 is the table name, then one slot per column
}

type createColumn struct {
	name textinput.Model
	typ  dbvalue.ColumnType
}

func newCreateForm() *createForm {
	name := textinput.New()
	name.Placeholder = "table name"
	name.Focus()
	name.CharLimit = 64

	f := &createForm{name: name}
	f.addColumn()
	return f
}

func newColumnInput() textinput.Model {
	in := textinput.New()
	in.Placeholder = "column name"
	in.CharLimit = 64
	return in
}

func (f *createForm) addColumn() {
	f.cols = append(f.cols, createColumn{name: newColumnInput(), typ: dbvalue.TypeText})
}

func (f *createForm) removeColumn() {
	if len(f.cols) > 1 {
		f.cols = f.cols[:len(f.cols)-1]
		if f.focus > len(f.cols) {
			f.setFocus(len(f.cols))
		}
	}
}

func (f *createForm) setFocus(i int) {
	f.name.Blur()
	for c := range f.cols {
		f.cols[c].name.Blur()
	}
	f.focus = i
	if i == 0 {
		f.name.Focus()
	} else {
		f.cols[i-1].name.Focus()
	}
}

func (f *createForm) moveFocus(delta int) {
	next := f.focus + delta
	if next < 0 {
		next = 0
	}
	if next > len(f.cols) {
		next = len(f.cols)
	}
	f.setFocus(next)
}

func (f *createForm) toggleType() {
	if f.focus > 0 {
		f.cols[f.focus-1].typ = nextType(f.cols[f.focus-1].typ)
	}
}

func (f *createForm) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.name, cmd = f.name.Update(msg)
	} else {
		f.cols[f.focus-1].name, cmd = f.cols[f.focus-1].name.Update(msg)
	}
	return cmd
}

// build assembles the command inputs, or an error message for the status
// line when the form is incomplete.
func (f *createForm) build() (string, []dbproto.Column, string) {
	table := strings.TrimSpace(f.name.Value())
	if table == "" {
		return "", nil, "table name is required"
	}
	var columns []dbproto.Column
	for _, col := range f.cols {
		name := strings.TrimSpace(col.name.Value())
		if name == "" {
			continue
		}
		columns = append(columns, dbproto.Column{Name: name, Type: col.typ})
	}
	if len(columns) == 0 {
		return "", nil, "at least one column is required"
	}
	return table, columns, ""
}

func (f *createForm) view(st styles) string {
	var b strings.Builder
	b.WriteString(st.title.Render("Create table") + "\n\n")
	b.WriteString(cursorFor(st, f.focus == 0) + f.name.View() + "\n\n")
	for i, col := range f.cols {
		b.WriteString(cursorFor(st, f.focus == i+1))
		b.WriteString(col.name.View())
		b.WriteString("  " + st.typeTag.Render(string(col.typ)) + "\n")
	}
	b.WriteString("\n" + st.hint.Render("space: cycle type  +/-: add/remove column  enter: create  esc: cancel"))
	return b.String()
}

// rowForm is the schema-driven input form shared by insert and update.
// Field order, names and types come straight from the cached schema.
type rowForm struct {
	table  string
	update bool
	rowID  uint64
	fields []dbform.Field
	inputs []textinput.Model // parallel to fields; unused for bool columns
	focus  int
}

func newRowForm(table string, schema dbcache.TableSchema, update bool, rowID uint64, current dbproto.Row) *rowForm {
	var fields []dbform.Field
	if update {
		fields = dbform.Update(schema)
	} else {
		fields = dbform.Insert(schema)
	}

	inputs := make([]textinput.Model, len(fields))
	for i, field := range fields {
		in := textinput.New()
		in.Placeholder = string(field.Column.Type)
		in.CharLimit = 256
		if update && current != nil {
			// prefill with the row's current value
			if v, ok := current[field.Column.Name]; ok {
				switch field.Column.Type {
				case dbvalue.TypeBool:
					checked, _ := v.(bool)
					fields[i].Checked = checked
				default:
					in.SetValue(dbvalue.Format(v))
				}
			}
		}
		inputs[i] = in
	}

	f := &rowForm{
		table:  table,
		update: update,
		rowID:  rowID,
		fields: fields,
		inputs: inputs,
	}
	if len(f.fields) > 0 {
		f.setFocus(0)
	}
	return f
}

func (f *rowForm) setFocus(i int) {
	for n := range f.inputs {
		f.inputs[n].Blur()
	}
	f.focus = i
	if f.fields[i].Column.Type != dbvalue.TypeBool {
		f.inputs[i].Focus()
	}
}

func (f *rowForm) moveFocus(delta int) {
	if len(f.fields) == 0 {
		return
	}
	next := f.focus + delta
	if next < 0 {
		next = 0
	}
	if next >= len(f.fields) {
		next = len(f.fields) - 1
	}
	f.setFocus(next)
}

func (f *rowForm) toggleValue() {
	if len(f.fields) == 0 {
		return
	}
	if f.fields[f.focus].Column.Type == dbvalue.TypeBool {
		f.fields[f.focus].Checked = !f.fields[f.focus].Checked
	}
}

func (f *rowForm) toggleInclude() {
	if f.update && len(f.fields) > 0 {
		f.fields[f.focus].Include = !f.fields[f.focus].Include
	}
}

func (f *rowForm) updateInputs(msg tea.Msg) tea.Cmd {
	if len(f.fields) == 0 || f.fields[f.focus].Column.Type == dbvalue.TypeBool {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// collect copies the control states into the fields and returns them.
func (f *rowForm) collect() []dbform.Field {
	for i := range f.fields {
		if f.fields[i].Column.Type != dbvalue.TypeBool {
			f.fields[i].Text = f.inputs[i].Value()
		}
	}
	return f.fields
}

func (f *rowForm) view(st styles) string {
	var b strings.Builder
	if f.update {
		b.WriteString(st.title.Render(fmt.Sprintf("Update %s row %d", f.table, f.rowID)) + "\n\n")
	} else {
		b.WriteString(st.title.Render("Insert into "+f.table) + "\n\n")
	}

	for i, field := range f.fields {
		b.WriteString(cursorFor(st, f.focus == i))
		if f.update {
			mark := "[ ]"
			if field.Include {
				mark = "[x]"
			}
			b.WriteString(mark + " ")
		}
		label := fmt.Sprintf("%s (%s): ", field.Column.Name, field.Column.Type)
		b.WriteString(st.label.Render(label))
		if field.Column.Type == dbvalue.TypeBool {
			if field.Checked {
				b.WriteString("☑ true")
			} else {
				b.WriteString("☐ false")
			}
		} else {
			b.WriteString(f.inputs[i].View())
		}
		b.WriteString("\n")
	}

	hint := "space: toggle bool  enter: submit  esc: cancel"
	if f.update {
		hint = "ctrl+x: include column  " + hint
	}
	b.WriteString("\n" + st.hint.Render(hint))
	return b.String()
}

func cursorFor(st styles, focused bool) string {
	if focused {
		return st.cursor.Render("> ")
	}
	return "  "
}
