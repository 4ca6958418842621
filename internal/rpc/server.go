// Package rpc implements a JSON-RPC 2.0 server reachable over HTTP,
// WebSocket and a ZeroMQ IPC socket. Methods are registered at runtime.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	klog "github.com/Klingon-tech/klayr-reg/internal/log"
	"github.com/go-zeromq/zmq4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// Server is the JSON-RPC 2.0 server.
type Server struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	server   *http.Server
	ln       net.Listener
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	ipc       zmq4.Socket
	ipcCancel context.CancelFunc
	ipcMu     sync.Mutex

	connMu  sync.Mutex
	wsConns map[*websocket.Conn]*sync.Mutex
}

// New creates a server with no methods registered.
func New() *Server {
	s := &Server{
		handlers: make(map[string]HandlerFunc),
		wsConns:  make(map[*websocket.Conn]*sync.Mutex),
		logger:   klog.WithComponent("rpc"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	s.server = &http.Server{
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
	}
	return s
}

// Handle registers fn for method, replacing any previous handler.
func (s *Server) Handle(method string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = fn
}

// Start listens on a TCP address for HTTP and WebSocket clients.
// It returns immediately after the listener is bound.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("RPC server error")
		}
	}()
	return nil
}

// StartIPC binds a ZeroMQ ROUTER socket at path. Each request arrives
// as one frame from a DEALER peer and is answered with one frame.
func (s *Server) StartIPC(path string) error {
	ctx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewRouter(ctx, zmq4.WithID(zmq4.SocketIdentity("rpc")))
	if err := sock.Listen("ipc://" + path); err != nil {
		cancel()
		_ = sock.Close()
		return fmt.Errorf("ipc listen: %w", err)
	}
	s.ipc, s.ipcCancel = sock, cancel

	go s.serveIPC(ctx, sock)
	return nil
}

// Addr returns the TCP listener address.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return ""
}

// HTTPURL returns the http:// URL of the TCP listener.
func (s *Server) HTTPURL() string {
	return "http://" + s.Addr()
}

// WSURL returns the ws:// URL of the TCP listener.
func (s *Server) WSURL() string {
	return "ws://" + s.Addr() + "/ws"
}

// Stop shuts down all listeners and open connections.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.connMu.Lock()
	for c := range s.wsConns {
		_ = c.Close()
	}
	s.connMu.Unlock()

	if s.ipc != nil {
		s.ipcCancel()
		_ = s.ipc.Close()
	}
	return s.server.Shutdown(ctx)
}

// Notify pushes a notification to every open WebSocket connection.
func (s *Server) Notify(method string, params interface{}) {
	msg := Notification{JSONRPC: "2.0", Method: method, Params: params}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for c, wmu := range s.wsConns {
		wmu.Lock()
		_ = c.WriteJSON(msg)
		wmu.Unlock()
	}
}

// handleRequest is the main HTTP handler. GET requests carrying an
// upgrade header become WebSocket sessions.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.serveWS(w, r)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, nil, CodeInvalidRequest, "only POST method is allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, nil, CodeParseError, "failed to read request body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, nil, CodeInvalidRequest, "request body too large")
		return
	}

	writeJSON(w, s.process(body))
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	wmu := &sync.Mutex{}
	s.connMu.Lock()
	s.wsConns[conn] = wmu
	s.connMu.Unlock()

	defer func() {
		s.connMu.Lock()
		delete(s.wsConns, conn)
		s.connMu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		resp := s.process(data)
		wmu.Lock()
		err = conn.WriteJSON(resp)
		wmu.Unlock()
		if err != nil {
			return
		}
	}
}

// serveIPC answers requests until ctx ends. Receive errors from a single
// peer going away do not stop the loop.
func (s *Server) serveIPC(ctx context.Context, sock zmq4.Socket) {
	for {
		msg, err := sock.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Debug().Err(err).Msg("IPC receive error")
			continue
		}
		if len(msg.Frames) < 2 {
			continue
		}
		peer, body := msg.Frames[0], msg.Frames[len(msg.Frames)-1]

		go func() {
			data, err := json.Marshal(s.process(body))
			if err != nil {
				return
			}
			s.ipcMu.Lock()
			defer s.ipcMu.Unlock()
			if err := sock.Send(zmq4.NewMsgFrom(peer, data)); err != nil {
				s.logger.Debug().Err(err).Msg("IPC send failed")
			}
		}()
	}
}

// process decodes one request and dispatches it.
func (s *Server) process(body []byte) Response {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Response{JSONRPC: "2.0", Error: &Error{Code: CodeParseError, Message: "invalid JSON"}}
	}

	if req.JSONRPC != "2.0" {
		return Response{JSONRPC: "2.0", Error: &Error{Code: CodeInvalidRequest, Message: "jsonrpc must be \"2.0\""}, ID: req.ID}
	}

	result, rpcErr := s.dispatch(&req)
	if rpcErr != nil {
		return Response{JSONRPC: "2.0", Error: rpcErr, ID: req.ID}
	}
	return Response{JSONRPC: "2.0", Result: result, ID: req.ID}
}

// dispatch routes a request to its registered handler.
func (s *Server) dispatch(req *Request) (interface{}, *Error) {
	s.mu.RLock()
	fn, ok := s.handlers[req.Method]
	s.mu.RUnlock()
	if !ok {
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
	return fn(req.Params)
}

// writeJSON writes a JSON-RPC response.
func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError writes a JSON-RPC error response.
func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	})
}

// ParseParams unmarshals request params into target.
func ParseParams(params json.RawMessage, target interface{}) *Error {
	if len(params) == 0 || string(params) == "null" {
		return &Error{Code: CodeInvalidParams, Message: "params required"}
	}
	if err := json.Unmarshal(params, target); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}
