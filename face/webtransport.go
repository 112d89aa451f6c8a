//go:build !tinygo

package face

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/ccnxgo/ccnd/core"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"
)

// WebTransportListenerConfig configures the QUIC/WebTransport face, the
// browser-reachable counterpart to the Unix and TCP local faces.
type WebTransportListenerConfig struct {
	Addr    string
	TLSCert string
	TLSKey  string
	Path    string
}

// WebTransportListener serves framed CCN datagrams over a WebTransport
// session.
type WebTransportListener struct {
	cfg      WebTransportListenerConfig
	mux      *http.ServeMux
	server   *webtransport.Server
	onAccept func(*WebTransportTransport)
}

// NewWebTransportListener builds the listener; Run blocks serving until
// Close.
func NewWebTransportListener(cfg WebTransportListenerConfig, onAccept func(*WebTransportTransport)) (*WebTransportListener, error) {
	cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
	if err != nil {
		return nil, fmt.Errorf("webtransport tls cert: %w", err)
	}

	l := &WebTransportListener{cfg: cfg, onAccept: onAccept}
	l.mux = http.NewServeMux()
	path := cfg.Path
	if path == "" {
		path = "/ccn"
	}
	l.mux.HandleFunc(path, l.handler)

	l.server = &webtransport.Server{
		H3: http3.Server{
			Addr: cfg.Addr,
			TLSConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
			QUICConfig: &quic.Config{
				MaxIdleTimeout:          60 * time.Second,
				KeepAlivePeriod:         30 * time.Second,
				DisablePathMTUDiscovery: true,
			},
			Handler: l.mux,
		},
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return l, nil
}

func (l *WebTransportListener) String() string {
	return fmt.Sprintf("webtransport-listener (%s)", l.cfg.Addr)
}

func (l *WebTransportListener) Run() {
	if err := l.server.ListenAndServe(); err != nil {
		core.Log.Error(l, "webtransport server stopped", "err", err)
	}
}

func (l *WebTransportListener) Close() {
	l.server.Close()
}

func (l *WebTransportListener) handler(rw http.ResponseWriter, r *http.Request) {
	sess, err := l.server.Upgrade(rw, r)
	if err != nil {
		core.Log.Warn(l, "webtransport upgrade failed", "err", err)
		return
	}
	t := newWebTransportTransport(sess, r.RemoteAddr)
	core.Log.Info(l, "accepted webtransport session", "remote", r.RemoteAddr)
	l.onAccept(t)
}

// WebTransportTransport carries CCN messages as WebTransport datagrams,
// one message per datagram.
type WebTransportTransport struct {
	transportBase
	sess *webtransport.Session
}

func newWebTransportTransport(sess *webtransport.Session, remote string) *WebTransportTransport {
	t := &WebTransportTransport{sess: sess}
	t.init("webtransport-local", remote, true, 1200)
	t.running.Store(true)
	return t
}

func (t *WebTransportTransport) String() string {
	return fmt.Sprintf("webtransport-transport (remote=%s)", t.remoteAddr)
}

func (t *WebTransportTransport) GetSendQueueSize() uint64 { return 0 }

func (t *WebTransportTransport) SendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.MTU() {
		return
	}
	if err := t.sess.SendDatagram(frame); err != nil {
		t.Close()
		return
	}
	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *WebTransportTransport) RunReceive(onFrame func([]byte)) {
	defer t.Close()
	for {
		msg, err := t.sess.ReceiveDatagram(t.sess.Context())
		if err != nil {
			return
		}
		t.nInBytes.Add(uint64(len(msg)))
		onFrame(msg)
	}
}

func (t *WebTransportTransport) Close() {
	if t.running.Swap(false) {
		t.sess.CloseWithError(0, "")
	}
}
