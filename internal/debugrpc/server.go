package debugrpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// scannerInitBufSize is the initial buffer size for the per-connection scanner (1 MB).
	scannerInitBufSize = 1024 * 1024
	// scannerMaxTokenSize is the maximum token size the scanner will accept (10 MB).
	scannerMaxTokenSize = 10 * 1024 * 1024
)

// Handler implements one method. The returned value is marshaled as the
// result; a non-nil *RPCError becomes the error object instead.
type Handler func(params json.RawMessage) (interface{}, *RPCError)

// Server answers JSON-RPC 2.0 calls from a method registry and pushes
// notifications to every connected client. The simulator runs one to stand
// in for an instrumented app's debug channel.
type Server struct {
	network  string
	addr     string
	listener net.Listener
	wg       sync.WaitGroup
	quit     chan struct{}

	mu       sync.Mutex
	handlers map[string]Handler
	conns    map[*serverConn]struct{}
}

// serverConn serializes writes so responses and broadcast notifications
// do not interleave mid-frame.
type serverConn struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (c *serverConn) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enc.Encode(v)
}

// NewServer creates a debug channel server. network is "unix" or "tcp".
func NewServer(network, addr string) *Server {
	return &Server{
		network:  network,
		addr:     addr,
		quit:     make(chan struct{}),
		handlers: make(map[string]Handler),
		conns:    make(map[*serverConn]struct{}),
	}
}

// Handle registers a method. Registration after Start is safe.
func (s *Server) Handle(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Start begins listening and accepting connections.
func (s *Server) Start() error {
	if s.network == "unix" {
		if err := s.prepareSocket(); err != nil {
			return err
		}
	}

	ln, err := net.Listen(s.network, s.addr)
	if err != nil {
		return fmt.Errorf("debugrpc: listen: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()

	log.Printf("debugrpc: listening on %s", ln.Addr())
	return nil
}

// prepareSocket makes the socket directory and removes a stale socket
// file, refusing to start when another server still answers on it.
func (s *Server) prepareSocket() error {
	if err := os.MkdirAll(filepath.Dir(s.addr), 0755); err != nil {
		return fmt.Errorf("debugrpc: mkdir: %w", err)
	}
	if _, err := os.Stat(s.addr); err == nil {
		conn, dialErr := net.DialTimeout("unix", s.addr, 500*time.Millisecond)
		if dialErr != nil {
			os.Remove(s.addr)
		} else {
			conn.Close()
			return fmt.Errorf("debugrpc: another server is already listening on %s", s.addr)
		}
	}
	return nil
}

// Stop closes the listener, waits for connections to drain, and removes
// the socket file.
func (s *Server) Stop() {
	select {
	case <-s.quit:
		return
	default:
	}
	close(s.quit)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	if s.network == "unix" {
		os.Remove(s.addr)
	}
}

// Addr returns the active listen address.
// Before Start, it returns the configured address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Notify broadcasts an id-less frame to every connected client.
func (s *Server) Notify(method string, params interface{}) {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			log.Printf("debugrpc: marshal notification params: %v", err)
			return
		}
		raw = data
	}
	note := Request{JSONRPC: "2.0", Method: method, Params: raw}

	s.mu.Lock()
	conns := make([]*serverConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.send(note); err != nil {
			log.Printf("debugrpc: notify %s: %v", method, err)
		}
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				log.Printf("debugrpc: accept error: %v", err)
				// Continue on transient errors (e.g., fd limit) instead of
				// killing the entire accept loop.
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	sc := &serverConn{enc: json.NewEncoder(conn)}
	s.mu.Lock()
	s.conns[sc] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, sc)
		s.mu.Unlock()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)

	for scanner.Scan() {
		select {
		case <-s.quit:
			return
		default:
		}

		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			sc.send(Response{JSONRPC: "2.0", ID: 0, Error: &RPCError{Code: CodeParse, Message: "parse error"}})
			continue
		}

		if req.ID == nil {
			// Notifications get no reply even when the method is unknown.
			if h := s.handler(req.Method); h != nil {
				h(req.Params)
			}
			continue
		}

		if err := sc.send(s.dispatch(req)); err != nil {
			return
		}
	}
}

func (s *Server) handler(method string) Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handlers[method]
}

func (s *Server) dispatch(req Request) Response {
	resp := Response{JSONRPC: "2.0", ID: *req.ID}

	h := s.handler(req.Method)
	if h == nil {
		resp.Error = &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
		return resp
	}

	result, rpcErr := h(req.Params)
	if rpcErr != nil {
		resp.Error = rpcErr
		return resp
	}
	data, err := json.Marshal(result)
	if err != nil {
		resp.Error = &RPCError{Code: CodeInternal, Message: err.Error()}
		return resp
	}
	resp.Result = data
	return resp
}
