package face

import (
	"fmt"
	"net/http"

	"github.com/ccnxgo/ccnd/core"
	"github.com/gorilla/websocket"
)

// WebSocketListenerConfig configures the plain-TLS-free browser face
// (ccnd's browser bridge predates WebTransport support in most
// browsers, so we
// additionally offer this simpler fallback wired to gorilla/websocket).
type WebSocketListenerConfig struct {
	Addr string
	Path string
}

// WebSocketListener upgrades HTTP connections to WebSocket sessions and
// hands each accepted connection off as a face.
type WebSocketListener struct {
	cfg      WebSocketListenerConfig
	srv      *http.Server
	upgrader websocket.Upgrader
	onAccept func(*WebSocketTransport)
}

// NewWebSocketListener builds the listener; Run blocks serving until
// Close.
func NewWebSocketListener(cfg WebSocketListenerConfig, onAccept func(*WebSocketTransport)) *WebSocketListener {
	l := &WebSocketListener{
		cfg:      cfg,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		onAccept: onAccept,
	}
	mux := http.NewServeMux()
	path := cfg.Path
	if path == "" {
		path = "/ccn"
	}
	mux.HandleFunc(path, l.handler)
	l.srv = &http.Server{Addr: cfg.Addr, Handler: mux}
	return l
}

func (l *WebSocketListener) String() string { return fmt.Sprintf("websocket-listener (%s)", l.cfg.Addr) }

func (l *WebSocketListener) Run() {
	if err := l.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		core.Log.Error(l, "websocket server stopped", "err", err)
	}
}

func (l *WebSocketListener) Close() {
	l.srv.Close()
}

func (l *WebSocketListener) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		core.Log.Warn(l, "websocket upgrade failed", "err", err)
		return
	}
	t := newWebSocketTransport(conn)
	core.Log.Info(l, "accepted websocket connection", "remote", r.RemoteAddr)
	l.onAccept(t)
}

// WebSocketTransport carries one CCN message per WebSocket binary frame.
type WebSocketTransport struct {
	transportBase
	conn *websocket.Conn
}

func newWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	t := &WebSocketTransport{conn: conn}
	t.init(conn.LocalAddr().String(), conn.RemoteAddr().String(), true, 1<<16)
	t.running.Store(true)
	return t
}

func (t *WebSocketTransport) String() string {
	return fmt.Sprintf("websocket-transport (remote=%s)", t.remoteAddr)
}

func (t *WebSocketTransport) GetSendQueueSize() uint64 { return 0 }

func (t *WebSocketTransport) SendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if err := t.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Close()
		return
	}
	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *WebSocketTransport) RunReceive(onFrame func([]byte)) {
	defer t.Close()
	for {
		kind, msg, err := t.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		t.nInBytes.Add(uint64(len(msg)))
		onFrame(msg)
	}
}

func (t *WebSocketTransport) Close() {
	if t.running.Swap(false) {
		t.conn.Close()
	}
}
