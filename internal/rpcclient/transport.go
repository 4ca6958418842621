package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/gorilla/websocket"
)

// httpTransport posts each request to a URL.
type httpTransport struct {
	endpoint string
	http     *http.Client
}

func newHTTPTransport(endpoint string) *httpTransport {
	return &httpTransport{endpoint: endpoint, http: &http.Client{}}
}

func (t *httpTransport) roundTrip(ctx context.Context, req *request) (*response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &rpcResp, nil
}

func (t *httpTransport) close() error {
	t.http.CloseIdleConnections()
	return nil
}

// deadlineConn is the part of a connection used to abort blocked reads
// when a context ends.
type deadlineConn interface {
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
}

// watchContext makes blocked I/O on conn return once ctx is done.
// The returned func must be called when the exchange finishes.
func watchContext(ctx context.Context, conn deadlineConn) func() {
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(dl)
		_ = conn.SetWriteDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() {
		past := time.Unix(1, 0)
		_ = conn.SetReadDeadline(past)
		_ = conn.SetWriteDeadline(past)
	})
	return func() {
		stop()
		_ = conn.SetReadDeadline(time.Time{})
		_ = conn.SetWriteDeadline(time.Time{})
	}
}

// ctxErr prefers the context error over the I/O error it caused.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return context.DeadlineExceeded
	}
	return err
}

// wsTransport carries JSON-RPC over a WebSocket connection. Frames that
// are notifications or answer another request are skipped.
type wsTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func dialWS(ctx context.Context, url string) (*wsTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) roundTrip(ctx context.Context, req *request) (*response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	done := watchContext(ctx, t.conn)
	defer done()

	if err := t.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("ws write: %w", ctxErr(ctx, err))
	}
	for {
		var resp response
		if err := t.conn.ReadJSON(&resp); err != nil {
			return nil, fmt.Errorf("ws read: %w", ctxErr(ctx, err))
		}
		if resp.ID != nil && *resp.ID == req.ID {
			return &resp, nil
		}
	}
}

func (t *wsTransport) close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return t.conn.Close()
}

// ipcTransport carries JSON-RPC over a ZeroMQ DEALER socket connected
// to the node's RPC ROUTER socket. Requests and responses are single
// frames.
type ipcTransport struct {
	mu     sync.Mutex
	sock   zmq4.Socket
	cancel context.CancelFunc
	frames chan []byte
	// err is set before frames is closed.
	err error
}

// ipcSeq keeps socket identities unique within the process.
var ipcSeq atomic.Uint64

func dialIPC(ctx context.Context, path string) (*ipcTransport, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(context.Background())
	id := fmt.Sprintf("klayr-reg-%d-%d", os.Getpid(), ipcSeq.Add(1))
	sock := zmq4.NewDealer(sctx, zmq4.WithID(zmq4.SocketIdentity(id)))
	if err := sock.Dial("ipc://" + path); err != nil {
		cancel()
		_ = sock.Close()
		return nil, err
	}

	t := &ipcTransport{sock: sock, cancel: cancel, frames: make(chan []byte, 16)}
	go t.readLoop(sctx)
	return t, nil
}

// readLoop forwards response frames until the socket fails or closes.
func (t *ipcTransport) readLoop(ctx context.Context) {
	defer close(t.frames)
	for {
		msg, err := t.sock.Recv()
		if err != nil {
			t.err = err
			return
		}
		if len(msg.Frames) == 0 {
			continue
		}
		select {
		case t.frames <- msg.Frames[len(msg.Frames)-1]:
		case <-ctx.Done():
			t.err = ctx.Err()
			return
		}
	}
}

func (t *ipcTransport) roundTrip(ctx context.Context, req *request) (*response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if err := t.sock.Send(zmq4.NewMsg(body)); err != nil {
		return nil, fmt.Errorf("ipc send: %w", ctxErr(ctx, err))
	}
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("ipc read: %w", ctx.Err())
		case frame, ok := <-t.frames:
			if !ok {
				return nil, fmt.Errorf("ipc read: %w", t.err)
			}
			var resp response
			if err := json.Unmarshal(frame, &resp); err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
			if resp.ID != nil && *resp.ID == req.ID {
				return &resp, nil
			}
		}
	}
}

func (t *ipcTransport) close() error {
	t.cancel()
	return t.sock.Close()
}
