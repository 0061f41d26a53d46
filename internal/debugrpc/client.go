package debugrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"
)

// frame is the wire shape of anything the server sends: a response when
// ID is set, a notification when only Method is.
type frame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Client speaks JSON-RPC 2.0 to a debug channel server. A reader goroutine
// correlates responses to in-flight calls by id and surfaces id-less
// frames on the Notifications channel, so notifications can arrive in the
// middle of a call.
type Client struct {
	conn net.Conn

	encMu sync.Mutex
	enc   *json.Encoder

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan Response
	readErr error

	notes chan Notification
	done  chan struct{}
}

// Dial connects to the debug channel server. network is "unix" or "tcp".
func Dial(network, addr string) (*Client, error) {
	conn, err := net.DialTimeout(network, addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("debugrpc: dial: %w", err)
	}
	c := &Client{
		conn:    conn,
		enc:     json.NewEncoder(conn),
		pending: make(map[int64]chan Response),
		notes:   make(chan Notification, 16),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close closes the underlying connection. In-flight calls fail, and the
// Notifications channel closes once the reader drains.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Notifications returns the channel of server pushes. It closes when the
// connection ends.
func (c *Client) Notifications() <-chan Notification {
	return c.notes
}

// Call performs a JSON-RPC call and unmarshals the result into dest.
// A nil dest discards the result.
func (c *Client) Call(ctx context.Context, method string, params, dest interface{}) error {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("debugrpc: marshal params: %w", err)
		}
		raw = data
	}

	c.mu.Lock()
	if c.readErr != nil {
		err := c.readErr
		c.mu.Unlock()
		return fmt.Errorf("debugrpc: connection closed: %w", err)
	}
	c.nextID++
	id := c.nextID
	ch := make(chan Response, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	c.encMu.Lock()
	err := c.enc.Encode(Request{JSONRPC: "2.0", ID: &id, Method: method, Params: raw})
	c.encMu.Unlock()
	if err != nil {
		c.forget(id)
		return fmt.Errorf("debugrpc: send: %w", err)
	}

	select {
	case resp := <-ch:
		return decodeResult(resp, dest)
	case <-c.done:
		// The response may have landed just before the reader exited.
		select {
		case resp := <-ch:
			return decodeResult(resp, dest)
		default:
		}
		c.forget(id)
		return fmt.Errorf("debugrpc: connection closed")
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	}
}

func decodeResult(resp Response, dest interface{}) error {
	if resp.Error != nil {
		return resp.Error
	}
	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("debugrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)

	for scanner.Scan() {
		var f frame
		if err := json.Unmarshal(scanner.Bytes(), &f); err != nil {
			log.Printf("debugrpc: dropping malformed frame: %v", err)
			continue
		}
		switch {
		case f.Method != "" && f.ID == nil:
			select {
			case c.notes <- Notification{Method: f.Method, Params: f.Params}:
			default:
				log.Printf("debugrpc: notification buffer full, dropping %s", f.Method)
			}
		case f.ID != nil:
			c.mu.Lock()
			ch := c.pending[*f.ID]
			delete(c.pending, *f.ID)
			c.mu.Unlock()
			if ch != nil {
				ch <- Response{JSONRPC: f.JSONRPC, ID: *f.ID, Result: f.Result, Error: f.Error}
			}
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	c.mu.Lock()
	c.readErr = err
	c.mu.Unlock()
	close(c.done)
	close(c.notes)
}
