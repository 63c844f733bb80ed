// Package testserver is an in-memory stand-in for the tabular data
// service, speaking the real wire protocol over a real websocket. Tests
// use it to exercise the client end to end; its semantics (error strings,
// row id allocation, selectAll ordering) mirror the production service.
package testserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Riyan-Almaiman/rust-db/pkg/dbproto"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbvalue"
)

type table struct {
	columns   []dbproto.Column
	rows      map[uint64][]interface{}
	nextRowID uint64
}

// Server holds the tables and the live websockets.
type Server struct {
	httpSrv *httptest.Server

	mu     sync.Mutex
	order  []string
	tables map[string]*table
	conns  map[*websocket.Conn]struct{}
	delay  time.Duration
}

var upgrader = websocket.Upgrader{}

// Start brings up an empty service on an ephemeral port.
func Start() *Server {
	s := &Server{
		tables: make(map[string]*table),
		conns:  make(map[*websocket.Conn]struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = httptest.NewServer(mux)
	return s
}

// BaseURL is the http URL of the service, as a hosting page would see it.
func (s *Server) BaseURL() string {
	return s.httpSrv.URL
}

// Close stops the service and drops every connection.
func (s *Server) Close() {
	s.DropConnections()
	s.httpSrv.Close()
}

// DropConnections closes every live channel without stopping the service,
// simulating a transport failure the client must recover from.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.conns = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// SetRespondDelay makes the service sit on every request for d before
// answering, to hold a command in flight.
func (s *Server) SetRespondDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		s.mu.Lock()
		delay := s.delay
		s.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}

		resp := s.execute(data)
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

// request is the union of every command's fields.
type request struct {
	Type    string                 `json:"type"`
	Table   string                 `json:"table"`
	Columns [][2]string            `json:"columns"`
	Values  []interface{}          `json:"values"`
	RowID   uint64                 `json:"rowId"`
	Updates map[string]interface{} `json:"updates"`
}

func errorResponse(format string, v ...interface{}) *dbproto.Response {
	return &dbproto.Response{OK: false, Error: fmt.Sprintf(format, v...)}
}

func (s *Server) execute(data []byte) *dbproto.Response {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var req request
	if err := dec.Decode(&req); err != nil {
		return errorResponse("Invalid JSON: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Type {
	case dbproto.TypeCreateTable:
		return s.createTable(req)
	case dbproto.TypeInsert:
		return s.insertRow(req)
	case dbproto.TypeUpdate:
		return s.updateRow(req)
	case dbproto.TypeSelectAll:
		return s.selectAll(req)
	case dbproto.TypeGetTables:
		return s.getTables()
	default:
		return errorResponse("Invalid JSON: unknown command type %q", req.Type)
	}
}

func (s *Server) createTable(req request) *dbproto.Response {
	if _, ok := s.tables[req.Table]; ok {
		return errorResponse("Table already exists")
	}
	columns := make([]dbproto.Column, 0, len(req.Columns))
	for _, pair := range req.Columns {
		typ, err := dbvalue.ParseColumnType(pair[1])
		if err != nil {
			return errorResponse("Unknown type: %s", pair[1])
		}
		columns = append(columns, dbproto.Column{Name: pair[0], Type: typ})
	}
	s.tables[req.Table] = &table{
		columns:   columns,
		rows:      make(map[uint64][]interface{}),
		nextRowID: 1,
	}
	s.order = append(s.order, req.Table)
	return &dbproto.Response{OK: true}
}

func (s *Server) insertRow(req request) *dbproto.Response {
	t, ok := s.tables[req.Table]
	if !ok {
		return errorResponse("Table not found")
	}
	if len(req.Values) != len(t.columns) {
		return errorResponse("Column count mismatch")
	}
	values := make([]interface{}, len(req.Values))
	for i, raw := range req.Values {
		v, err := normalize(raw)
		if err != nil {
			return errorResponse("%v", err)
		}
		if !matchesType(v, t.columns[i].Type) {
			return errorResponse("Type mismatch for column %s", t.columns[i].Name)
		}
		values[i] = v
	}
	id := t.nextRowID
	t.nextRowID++
	t.rows[id] = values
	return &dbproto.Response{OK: true}
}

func (s *Server) updateRow(req request) *dbproto.Response {
	t, ok := s.tables[req.Table]
	if !ok {
		return errorResponse("Table not found")
	}
	row, ok := t.rows[req.RowID]
	if !ok {
		return errorResponse("Row not found")
	}
	for name, raw := range req.Updates {
		idx := -1
		for i, col := range t.columns {
			if col.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return errorResponse("Column not found")
		}
		v, err := normalize(raw)
		if err != nil {
			return errorResponse("%v", err)
		}
		if !matchesType(v, t.columns[idx].Type) {
			return errorResponse("Type mismatch for column %s", name)
		}
		row[idx] = v
	}
	return &dbproto.Response{OK: true}
}

func (s *Server) selectAll(req request) *dbproto.Response {
	t, ok := s.tables[req.Table]
	if !ok {
		return errorResponse("Table not found")
	}

	columns := make([]string, len(t.columns))
	for i, col := range t.columns {
		columns[i] = col.Name
	}

	ids := make([]uint64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]dbproto.Row, 0, len(ids))
	for _, id := range ids {
		row := dbproto.Row{dbproto.FieldRowID: int64(id)}
		for i, col := range t.columns {
			row[col.Name] = t.rows[id][i]
		}
		rows = append(rows, row)
	}

	return &dbproto.Response{OK: true, Columns: columns, Rows: rows}
}

func (s *Server) getTables() *dbproto.Response {
	rows := make([]dbproto.Row, 0)
	id := int64(1)
	for _, name := range s.order {
		t := s.tables[name]
		for _, col := range t.columns {
			rows = append(rows, dbproto.Row{
				dbproto.FieldRowID:      id,
				dbproto.FieldTableName:  name,
				dbproto.FieldColumnName: col.Name,
				dbproto.FieldColumnType: string(col.Type),
			})
			id++
		}
	}
	return &dbproto.Response{
		OK:      true,
		Columns: []string{dbproto.FieldTableName, dbproto.FieldColumnName, dbproto.FieldColumnType},
		Rows:    rows,
	}
}

// normalize maps decoded JSON values to the service's value domain:
// int64, string or bool.
func normalize(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("Invalid integer")
		}
		return n, nil
	case string, bool:
		return val, nil
	default:
		return nil, fmt.Errorf("Unsupported value type")
	}
}

func matchesType(v interface{}, typ dbvalue.ColumnType) bool {
	switch v.(type) {
	case int64:
		return typ == dbvalue.TypeInt
	case string:
		return typ == dbvalue.TypeText
	case bool:
		return typ == dbvalue.TypeBool
	default:
		return false
	}
}
