// Package dbclient maintains the persistent websocket channel to the
// tabular data service and correlates commands with responses.
//
// The protocol carries no request identifier: the service answers every
// command with exactly one message, in order, and never speaks unprompted.
// The client therefore allows a single outstanding command at a time and
// resolves the waiting caller with the next inbound message. This is a
// single-flight protocol, not a multiplexed RPC protocol; Do fails fast
// with ErrPending instead of silently abandoning an earlier caller.
package dbclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Riyan-Almaiman/rust-db/internal/logger"
	"github.com/Riyan-Almaiman/rust-db/pkg/dbproto"
)

// State of the channel lifecycle.
type State int

const (
	// StateConnecting: a dial attempt is in progress.
	StateConnecting State = iota
	// StateOpen: the channel is established and commands may be sent.
	StateOpen
	// StateClosed: the channel is down; a reconnect is scheduled unless
	// the client itself was closed.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

var (
	// ErrPending: a command is already in flight. One at a time.
	ErrPending = errors.New("request already pending")
	// ErrNotConnected: the channel is not open. Commands are rejected
	// rather than buffered; buffered redelivery cannot be exactly-once
	// without a correlation id.
	ErrNotConnected = errors.New("not connected")
	// ErrConnectionLost: the channel closed before the response arrived.
	ErrConnectionLost = errors.New("connection lost")
	// ErrClientClosed: Close was called.
	ErrClientClosed = errors.New("client closed")
)

// DefaultReconnectDelay matches the reference client: a fixed pause, no
// backoff growth, no attempt limit.
const DefaultReconnectDelay = 2 * time.Second

const defaultHandshakeTimeout = 10 * time.Second

// Options tune the connection lifecycle. The callbacks fire from the
// client's connection goroutine with the reader already live, so OnConnect
// may issue commands; a callback that blocks indefinitely stalls the
// reconnect cycle.
type Options struct {
	// ReconnectDelay between a closure and the next dial attempt.
	// Defaults to DefaultReconnectDelay.
	ReconnectDelay time.Duration
	// HandshakeTimeout for each dial attempt.
	HandshakeTimeout time.Duration
	// OnConnect fires after every successful channel establishment;
	// dependents use it to trigger a schema refresh.
	OnConnect func()
	// OnDisconnect fires on every closure with the transport error.
	OnDisconnect func(err error)
}

// pending is the single slot for the one command awaiting its response.
type pending struct {
	done chan struct{}
	resp *dbproto.Response
	err  error
}

// Client owns the channel. Construct with Connect.
type Client struct {
	url  string
	opts Options

	mu      sync.Mutex
	state   State
	conn    *websocket.Conn
	pending *pending
	closed  bool

	stop chan struct{}
}

// Connect starts managing a channel to the given websocket URL (see
// ServiceURL). It returns immediately; the connection is established in the
// background and retried indefinitely on the configured delay.
func Connect(rawURL string, opts Options) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}

	c := &Client{
		url:   rawURL,
		opts:  opts,
		state: StateConnecting,
		stop:  make(chan struct{}),
	}

	go c.run()

	return c
}

// State reports the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close tears the channel down for good. A caller blocked in Do is failed
// with ErrConnectionLost.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateClosed
	conn := c.conn
	c.mu.Unlock()

	close(c.stop)
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Do sends one command and blocks until its response arrives. It returns
// ErrNotConnected while the channel is not open and ErrPending while
// another command's response is outstanding; neither consumes the request
// slot. If the channel closes mid-request the caller gets
// ErrConnectionLost instead of hanging forever.
func (c *Client) Do(cmd interface{}) (*dbproto.Response, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	if c.state != StateOpen {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	if c.pending != nil {
		c.mu.Unlock()
		return nil, ErrPending
	}
	p := &pending{done: make(chan struct{})}
	c.pending = p
	conn := c.conn
	c.mu.Unlock()

	if err := conn.WriteJSON(cmd); err != nil {
		c.mu.Lock()
		if c.pending == p {
			c.pending = nil
		}
		c.mu.Unlock()
		// force the reader out so the reconnect loop takes over
		conn.Close()
		return nil, fmt.Errorf("send: %w", err)
	}

	<-p.done
	if p.err != nil {
		return nil, p.err
	}
	return p.resp, nil
}

// run drives the Connecting -> Open -> Closed -> Connecting cycle until
// Close is called.
func (c *Client) run() {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}

	for {
		conn, _, err := dialer.Dial(c.url, nil)
		if err != nil {
			logger.Info("dial %s failed: %v", c.url, err)
			if !c.closeAndWait(nil) {
				return
			}
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		c.state = StateOpen
		c.mu.Unlock()

		logger.Info("connected to %s", c.url)

		// the reader must be live before the connected signal so the
		// callback itself may issue commands
		errCh := make(chan error, 1)
		go func() {
			errCh <- c.readLoop(conn)
		}()

		if c.opts.OnConnect != nil {
			c.opts.OnConnect()
		}

		err = <-errCh
		conn.Close()

		if !c.closeAndWait(err) {
			return
		}
	}
}

// closeAndWait transitions to Closed, fails any pending caller, fires the
// disconnected signal, and waits out the reconnect delay. It reports false
// when the client was closed and the cycle must stop.
func (c *Client) closeAndWait(cause error) bool {
	c.mu.Lock()
	wasOpen := c.state == StateOpen
	c.state = StateClosed
	c.conn = nil
	closed := c.closed
	c.mu.Unlock()

	c.failPending()
	if closed {
		return false
	}
	if wasOpen {
		logger.Info("connection lost: %v", cause)
		if c.opts.OnDisconnect != nil {
			c.opts.OnDisconnect(cause)
		}
	}

	select {
	case <-time.After(c.opts.ReconnectDelay):
	case <-c.stop:
		return false
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.state = StateConnecting
	c.mu.Unlock()
	return true
}

// failPending fails the waiting caller, if any, with ErrConnectionLost.
func (c *Client) failPending() {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	c.mu.Unlock()

	if p != nil {
		p.err = ErrConnectionLost
		close(p.done)
	}
}

// readLoop decodes inbound messages and resolves the pending caller, one
// message per command in arrival order. When the channel dies it fails the
// pending caller itself, so a caller inside the connected callback cannot
// wedge the reconnect cycle.
func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.failPending()
			return err
		}

		c.mu.Lock()
		p := c.pending
		c.pending = nil
		c.mu.Unlock()

		if p == nil {
			logger.Error("dropping unsolicited message: %s", data)
			continue
		}

		var resp dbproto.Response
		if err := json.Unmarshal(data, &resp); err != nil {
			p.err = fmt.Errorf("decode response: %w", err)
			close(p.done)
			continue
		}
		p.resp = &resp
		close(p.done)
	}
}

// ServiceURL derives the websocket endpoint from the service's base URL:
// http becomes ws, https becomes wss, and the channel path is /ws.
func ServiceURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse service url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
