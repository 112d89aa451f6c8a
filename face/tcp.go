/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ccnxgo/ccnd/core"
)

// TCPListener accepts incoming TCP connections and hands each one to
// onAccept as a freshly wrapped stream transport in FlagUndecided state,
// so the main loop can run the UNDECIDED detection state machine on its
// first bytes.
type TCPListener struct {
	ln       net.Listener
	addr     string
	stopped  chan struct{}
	onAccept func(net.Conn)
}

// NewTCPListener binds addr (e.g. "0.0.0.0:4783") for TCP.
func NewTCPListener(addr string, onAccept func(net.Conn)) (*TCPListener, error) {
	lc := &net.ListenConfig{Control: reuseAddrControl}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp listen %s: %w", addr, err)
	}
	return &TCPListener{ln: ln, addr: addr, stopped: make(chan struct{}), onAccept: onAccept}, nil
}

func (l *TCPListener) String() string { return fmt.Sprintf("tcp-listener (%s)", l.addr) }

// Run accepts connections until the listener is closed.
func (l *TCPListener) Run() {
	defer close(l.stopped)
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			core.Log.Warn(l, "accept failed", "err", err)
			continue
		}
		core.Log.Info(l, "accepted TCP connection", "remote", conn.RemoteAddr())
		l.onAccept(conn)
	}
}

// Close stops accepting and waits for Run to return.
func (l *TCPListener) Close() {
	l.ln.Close()
	<-l.stopped
}

// DialTCP opens an outbound TCP connection, for the internal client's
// newface verb rather than an accepted listener peer.
func DialTCP(addr string, mtu int) (*StreamTransport, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp dial %s: %w", addr, err)
	}
	return NewStreamTransport(conn, mtu), nil
}

// StreamTransport wraps any net.Conn-like stream (TCP or Unix-domain) in
// the common Transport shape: length isn't framed by the socket itself,
// so the face layer relies on the TLV length prefix to delimit messages.
type StreamTransport struct {
	transportBase
	conn net.Conn
}

// NewStreamTransport wraps an already-connected/accepted stream conn.
func NewStreamTransport(conn net.Conn, mtu int) *StreamTransport {
	t := &StreamTransport{conn: conn}
	t.init(conn.LocalAddr().String(), conn.RemoteAddr().String(), false, mtu)
	t.running.Store(true)
	return t
}

func (t *StreamTransport) String() string {
	return fmt.Sprintf("stream-transport (local=%s remote=%s)", t.localAddr, t.remoteAddr)
}

func (t *StreamTransport) GetSendQueueSize() uint64 {
	if tc, ok := t.conn.(*net.TCPConn); ok {
		if raw, err := tc.SyscallConn(); err == nil {
			return sendQueueSize(raw)
		}
	}
	if uc, ok := t.conn.(*net.UnixConn); ok {
		if raw, err := uc.SyscallConn(); err == nil {
			return sendQueueSize(raw)
		}
	}
	return 0
}

func (t *StreamTransport) SendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if _, err := t.conn.Write(frame); err != nil {
		t.Close()
		return
	}
	t.nOutBytes.Add(uint64(len(frame)))
}

// RunReceive delivers raw read chunks; the caller (the face dispatch
// layer) is responsible for buffering partial TLVs across chunks since a
// stream read boundary carries no message-framing guarantee.
func (t *StreamTransport) RunReceive(onFrame func([]byte)) {
	defer t.Close()
	buf := make([]byte, 64*1024)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			t.nInBytes.Add(uint64(n))
			frame := append([]byte(nil), buf[:n]...)
			onFrame(frame)
		}
		if err != nil {
			return
		}
	}
}

func (t *StreamTransport) Close() {
	if t.running.Swap(false) {
		t.conn.Close()
	}
}
