// Package tui is the terminal front end: a bubbletea application that
// browses tables, creates tables and inserts or updates rows through the
// command façade, with forms generated from the schema cache.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Riyan-Almaiman/rust-db/pkg/dbcache"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbclient"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbform"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbops"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbproto"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbvalue"
)

// Messages the connection callbacks feed into the program.
type (
	// ConnectedMsg: the channel opened; triggers a schema refresh.
	ConnectedMsg struct{}
	// DisconnectedMsg: the channel closed; a reconnect is pending.
	DisconnectedMsg struct{ Err error }
)

type schemaRefreshedMsg struct{ err error }

type rowsLoadedMsg struct {
	table string
	resp  *dbproto.Response
	err   error
}

type opDoneMsg struct {
	action string
	table  string
	resp   *dbproto.Response
	err    error
}

// Focus marks which browse pane takes navigation keys.
type Focus int

const (
	FocusTables Focus = iota
	FocusRows
)

type mode int

const (
	modeBrowse mode = iota
	modeCreate
	modeInsert
	modeUpdate
)

type styles struct {
	title     lipgloss.Style
	pane      lipgloss.Style
	focusPane lipgloss.Style
	selected  lipgloss.Style
	header    lipgloss.Style
	label     lipgloss.Style
	typeTag   lipgloss.Style
	cursor    lipgloss.Style
	hint      lipgloss.Style
	statusOK  lipgloss.Style
	statusErr lipgloss.Style
	connUp    lipgloss.Style
	connDown  lipgloss.Style
}

func defaultStyles() styles {
	border := lipgloss.RoundedBorder()
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		pane:      lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		focusPane: lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("62")).Padding(0, 1),
		selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		label:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		typeTag:   lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		cursor:    lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		hint:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statusOK:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		statusErr: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		connUp:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		connDown:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

// App is the root bubbletea model.
type App struct {
	db     *dbops.DB
	cache  *dbcache.Cache
	client *dbclient.Client

	keys   KeyMap
	styles styles

	width, height int

	mode  mode
	focus Focus

	tables        []string
	selectedTable int

	rows        *dbproto.Response
	rowsTable   string
	selectedRow int

	create *createForm
	form   *rowForm

	// busy holds while one command's response is outstanding; the UI
	// enforces the protocol's one-at-a-time discipline by refusing to
	// issue another until it settles.
	busy bool

	connected bool
	status    string
	statusErr bool
	showHelp  bool
}

func New(db *dbops.DB, cache *dbcache.Cache, client *dbclient.Client) *App {
	return &App{
		db:     db,
		cache:  cache,
		client: client,
		keys:   DefaultKeyMap(),
		styles: defaultStyles(),
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	// the connect callback usually beats program startup
	if a.client.State() == dbclient.StateOpen {
		a.connected = true
		return a.refreshSchema
	}
	return nil
}

func (a *App) refreshSchema() tea.Msg {
	return schemaRefreshedMsg{err: a.cache.Refresh()}
}

func (a *App) loadRows(table string) tea.Cmd {
	return func() tea.Msg {
		resp, err := a.db.SelectAll(table)
		return rowsLoadedMsg{table: table, resp: resp, err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case ConnectedMsg:
		a.connected = true
		a.setStatus("connected", false)
		a.busy = true
		return a, a.refreshSchema

	case DisconnectedMsg:
		a.connected = false
		a.busy = false
		a.setStatus("disconnected, retrying", true)
		return a, nil

	case schemaRefreshedMsg:
		a.busy = false
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("schema refresh failed: %v", msg.err), true)
			return a, nil
		}
		a.tables = a.cache.Tables()
		if a.selectedTable >= len(a.tables) {
			a.selectedTable = 0
		}
		if len(a.tables) > 0 {
			a.busy = true
			return a, a.loadRows(a.tables[a.selectedTable])
		}
		a.rows = nil
		return a, nil

	case rowsLoadedMsg:
		a.busy = false
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("load rows: %v", msg.err), true)
			return a, nil
		}
		if !msg.resp.OK {
			a.setStatus(msg.resp.Error, true)
			return a, nil
		}
		a.rows = msg.resp
		a.rowsTable = msg.table
		if a.selectedRow >= len(a.rows.Rows) {
			a.selectedRow = 0
		}
		return a, nil

	case opDoneMsg:
		a.busy = false
		return a.handleOpDone(msg)
	}

	return a, nil
}

func (a *App) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.setStatus(fmt.Sprintf("%s: %v", msg.action, msg.err), true)
		return a, nil
	}
	if !msg.resp.OK {
		a.setStatus(fmt.Sprintf("%s: %s", msg.action, msg.resp.Error), true)
		return a, nil
	}

	a.setStatus(msg.action+" ok", false)
	a.mode = modeBrowse
	a.create = nil
	a.form = nil
	a.busy = true
	if msg.action == "create table" {
		// a new table changes the schema set; refresh before anything else
		return a, a.refreshSchema
	}
	return a, a.loadRows(msg.table)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showHelp {
		if key.Matches(msg, a.keys.Back) || key.Matches(msg, a.keys.Help) || key.Matches(msg, a.keys.Quit) {
			a.showHelp = false
		}
		return a, nil
	}

	switch a.mode {
	case modeCreate:
		return a.handleCreateKey(msg)
	case modeInsert, modeUpdate:
		return a.handleFormKey(msg)
	}
	return a.handleBrowseKey(msg)
}

func (a *App) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.showHelp = true

	case key.Matches(msg, a.keys.NextPane):
		if a.focus == FocusTables {
			a.focus = FocusRows
		} else {
			a.focus = FocusTables
		}

	case key.Matches(msg, a.keys.Up):
		a.moveSelection(-1)
		if a.focus == FocusTables {
			return a.reloadSelected()
		}

	case key.Matches(msg, a.keys.Down):
		a.moveSelection(1)
		if a.focus == FocusTables {
			return a.reloadSelected()
		}

	case key.Matches(msg, a.keys.Select):
		if a.focus == FocusTables {
			return a.reloadSelected()
		}

	case key.Matches(msg, a.keys.Refresh):
		if a.startOp() {
			return a, a.refreshSchema
		}

	case key.Matches(msg, a.keys.Create):
		a.mode = modeCreate
		a.create = newCreateForm()

	case key.Matches(msg, a.keys.Insert):
		if table, schema, ok := a.selectedSchema(); ok {
			a.mode = modeInsert
			a.form = newRowForm(table, schema, false, 0, nil)
		}

	case key.Matches(msg, a.keys.Update):
		table, schema, ok := a.selectedSchema()
		if !ok {
			break
		}
		row, ok := a.currentRow(table)
		if !ok {
			a.setStatus("no row selected", true)
			break
		}
		a.mode = modeUpdate
		a.form = newRowForm(table, schema, true, row.ID(), row)
	}

	return a, nil
}

func (a *App) handleCreateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// plain letters must reach the text inputs, so form navigation
	// matches literal key names instead of the browse bindings
	switch {
	case key.Matches(msg, a.keys.Back):
		a.mode = modeBrowse
		a.create = nil
		return a, nil

	case msg.String() == "up" || msg.String() == "shift+tab":
		a.create.moveFocus(-1)
		return a, nil

	case msg.String() == "down" || msg.String() == "tab":
		a.create.moveFocus(1)
		return a, nil

	case key.Matches(msg, a.keys.Toggle):
		if a.create.focus > 0 {
			a.create.toggleType()
			return a, nil
		}

	case key.Matches(msg, a.keys.AddCol):
		a.create.addColumn()
		return a, nil

	case key.Matches(msg, a.keys.DelCol):
		a.create.removeColumn()
		return a, nil

	case key.Matches(msg, a.keys.Select):
		table, columns, errMsg := a.create.build()
		if errMsg != "" {
			a.setStatus(errMsg, true)
			return a, nil
		}
		if !a.startOp() {
			return a, nil
		}
		return a, func() tea.Msg {
			resp, err := a.db.CreateTable(table, columns)
			return opDoneMsg{action: "create table", table: table, resp: resp, err: err}
		}
	}

	return a, a.create.updateInputs(msg)
}

func (a *App) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back):
		a.mode = modeBrowse
		a.form = nil
		return a, nil

	case msg.String() == "up" || msg.String() == "shift+tab":
		a.form.moveFocus(-1)
		return a, nil

	case msg.String() == "down" || msg.String() == "tab":
		a.form.moveFocus(1)
		return a, nil

	case key.Matches(msg, a.keys.Include):
		if a.form.update {
			a.form.toggleInclude()
			return a, nil
		}

	case key.Matches(msg, a.keys.Toggle):
		if len(a.form.fields) > 0 && a.form.fields[a.form.focus].Column.Type == dbvalue.TypeBool {
			a.form.toggleValue()
			return a, nil
		}

	case key.Matches(msg, a.keys.Select):
		return a.submitForm()
	}

	return a, a.form.updateInputs(msg)
}

func (a *App) submitForm() (tea.Model, tea.Cmd) {
	form := a.form
	fields := form.collect()

	if form.update {
		changes, err := dbform.Changes(fields)
		if err != nil {
			// caught before the façade; no command goes out
			a.setStatus(err.Error(), true)
			return a, nil
		}
		if !a.startOp() {
			return a, nil
		}
		return a, func() tea.Msg {
			resp, err := a.db.Update(form.table, form.rowID, changes)
			return opDoneMsg{action: "update", table: form.table, resp: resp, err: err}
		}
	}

	values := dbform.Values(fields)
	if !a.startOp() {
		return a, nil
	}
	return a, func() tea.Msg {
		resp, err := a.db.Insert(form.table, values)
		return opDoneMsg{action: "insert", table: form.table, resp: resp, err: err}
	}
}

// startOp claims the single request slot, refusing when offline or when a
// command is already in flight.
func (a *App) startOp() bool {
	if !a.connected {
		a.setStatus("disconnected", true)
		return false
	}
	if a.busy {
		a.setStatus("a request is already in flight", true)
		return false
	}
	a.busy = true
	return true
}

func (a *App) moveSelection(delta int) {
	if a.focus == FocusTables {
		a.selectedTable = clamp(a.selectedTable+delta, len(a.tables))
	} else if a.rows != nil {
		a.selectedRow = clamp(a.selectedRow+delta, len(a.rows.Rows))
	}
}

func clamp(i, n int) int {
	if n == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (a *App) reloadSelected() (tea.Model, tea.Cmd) {
	if len(a.tables) == 0 || !a.startOp() {
		return a, nil
	}
	a.selectedRow = 0
	return a, a.loadRows(a.tables[a.selectedTable])
}

func (a *App) selectedSchema() (string, dbcache.TableSchema, bool) {
	if len(a.tables) == 0 {
		a.setStatus("no table selected", true)
		return "", nil, false
	}
	table := a.tables[a.selectedTable]
	schema := a.cache.Lookup(table)
	if len(schema) == 0 {
		a.setStatus("no schema cached for "+table, true)
		return "", nil, false
	}
	return table, schema, true
}

func (a *App) currentRow(table string) (dbproto.Row, bool) {
	if a.rows == nil || a.rowsTable != table || a.selectedRow >= len(a.rows.Rows) {
		return nil, false
	}
	return a.rows.Rows[a.selectedRow], true
}

func (a *App) setStatus(msg string, isErr bool) {
	a.status = msg
	a.statusErr = isErr
}

// View implements tea.Model.
func (a *App) View() string {
	var body string
	switch {
	case a.showHelp:
		body = a.renderHelp()
	case a.mode == modeCreate:
		body = a.styles.pane.Render(a.create.view(a.styles))
	case a.mode == modeInsert, a.mode == modeUpdate:
		body = a.styles.pane.Render(a.form.view(a.styles))
	default:
		body = a.renderBrowse()
	}
	return body + "\n" + a.renderStatus()
}

func (a *App) renderBrowse() string {
	tablesPane := a.renderTables()
	rowsPane := a.renderRows()

	left := a.styles.pane
	right := a.styles.pane
	if a.focus == FocusTables {
		left = a.styles.focusPane
	} else {
		right = a.styles.focusPane
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left.Render(tablesPane), right.Render(rowsPane))
}

func (a *App) renderTables() string {
	var b strings.Builder
	b.WriteString(a.styles.header.Render("Tables") + "\n")
	if len(a.tables) == 0 {
		b.WriteString(a.styles.hint.Render("(none yet, press c)"))
		return b.String()
	}
	for i, name := range a.tables {
		line := " " + name + " "
		if i == a.selectedTable {
			line = a.styles.selected.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (a *App) renderRows() string {
	var b strings.Builder
	b.WriteString(a.styles.header.Render("Rows") + "\n")
	if a.rows == nil || len(a.rows.Columns) == 0 {
		b.WriteString(a.styles.hint.Render("(select a table)"))
		return b.String()
	}

	columns := append([]string{dbproto.FieldRowID}, a.rows.Columns...)
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}

	cells := make([][]string, len(a.rows.Rows))
	for r, row := range a.rows.Rows {
		cells[r] = make([]string, len(columns))
		for i, col := range columns {
			text := dbvalue.Display(row[col])
			cells[r][i] = text
			if len(text) > widths[i] {
				widths[i] = len(text)
			}
		}
	}

	for i, col := range columns {
		b.WriteString(a.styles.header.Render(pad(col, widths[i])) + "  ")
	}
	b.WriteString("\n")
	for r := range cells {
		var line strings.Builder
		for i := range columns {
			line.WriteString(pad(cells[r][i], widths[i]) + "  ")
		}
		text := line.String()
		if r == a.selectedRow && a.focus == FocusRows {
			text = a.styles.selected.Render(text)
		}
		b.WriteString(text + "\n")
	}
	return b.String()
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func (a *App) renderStatus() string {
	conn := a.styles.connDown.Render("● offline")
	if a.connected {
		conn = a.styles.connUp.Render("● online")
	}

	status := a.status
	if a.busy {
		status = "working…"
	}
	styled := a.styles.statusOK.Render(status)
	if a.statusErr && !a.busy {
		styled = a.styles.statusErr.Render(status)
	}

	return conn + "  " + styled + "  " + a.styles.hint.Render("? help  q quit")
}

func (a *App) renderHelp() string {
	lines := []string{
		a.styles.title.Render("Keys"),
		"",
		"↑/↓        move",
		"tab        switch pane",
		"enter      select / submit form",
		"c          create table",
		"i          insert row into selected table",
		"u          update selected row",
		"ctrl+x     include column in update",
		"space      toggle bool / cycle column type",
		"+/-        add / remove column (create form)",
		"r          refresh schema and rows",
		"esc        close form or this help",
		"q          quit",
	}
	return a.styles.pane.Render(strings.Join(lines, "\n"))
}
