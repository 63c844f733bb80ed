// tabdb is a terminal client for the tabular data service: browse tables,
// create tables, insert and update rows over the service's websocket
// endpoint.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Riyan-Almaiman/rust-db/internal/logger"
	"github.com/Riyan-Almaiman/rust-db/internal/tui"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbcache"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbclient"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbops"
)

func main() {
	serviceURL := flag.String("url", "http://localhost:3000", "base URL of the data service")
	logFile := flag.String("log", "", "write logs to this file (default: discard)")
	flag.Parse()

	// the client logs connection churn; keep it off the terminal
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.Setup(f)
		logger.SetLevel(logger.LevelDebug)
	} else {
		logger.SetOutput(io.Discard)
	}

	wsURL, err := dbclient.ServiceURL(*serviceURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// the client dials before the program exists; callbacks that fire in
	// that window are covered by the model checking the state in Init
	var program atomic.Pointer[tea.Program]
	client := dbclient.Connect(wsURL, dbclient.Options{
		OnConnect: func() {
			if p := program.Load(); p != nil {
				p.Send(tui.ConnectedMsg{})
			}
		},
		OnDisconnect: func(err error) {
			if p := program.Load(); p != nil {
				p.Send(tui.DisconnectedMsg{Err: err})
			}
		},
	})
	defer client.Close()

	db := dbops.New(client)
	cache := dbcache.New(db)

	p := tea.NewProgram(tui.New(db, cache, client), tea.WithAltScreen())
	program.Store(p)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
