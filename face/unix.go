/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/ccnxgo/ccnd/core"
)

// UnixListener accepts local stream clients on the well-known socket path
//; every
// accepted connection is FlagLocal per ccnd's trust model for the Unix
// transport.
type UnixListener struct {
	ln       net.Listener
	path     string
	stopped  chan struct{}
	onAccept func(net.Conn)
	guard    *core.CleanupGuard
}

// NewUnixListener removes a stale socket file at path (if one is left
// over from a prior run) and binds a fresh listener.
func NewUnixListener(path string, onAccept func(net.Conn)) (*UnixListener, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("unix listen %s: %w", path, err)
	}
	return &UnixListener{
		ln:       ln,
		path:     path,
		stopped:  make(chan struct{}),
		onAccept: onAccept,
		guard:    core.NewCleanupGuard(path),
	}, nil
}

func (l *UnixListener) String() string { return fmt.Sprintf("unix-listener (%s)", l.path) }

func (l *UnixListener) Run() {
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
		core.Log.Info(l, "accepted local connection")
		l.onAccept(conn)
	}
}

func (l *UnixListener) Close() {
	l.ln.Close()
	<-l.stopped
	l.guard.Close()
}
