/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"context"
	"fmt"
	"net"

	"github.com/ccnxgo/ccnd/core"
)

// UDPListener owns the single wildcard datagram socket. Every peer
// address it ever reads from becomes (or reuses) a child face via the
// Table's datagram demux, exactly mirroring the single-socket
// many-peers model of ccnd's original UDP listener.
type UDPListener struct {
	conn     *net.UDPConn
	addr     string
	table    *Table
	self     *Face
	onPacket func(peer *net.UDPAddr, b []byte)
	closed   bool
}

// NewUDPListener binds addr (e.g. "0.0.0.0:4783") as a datagram socket.
func NewUDPListener(addr string, table *Table) (*UDPListener, error) {
	lc := &net.ListenConfig{Control: reuseAddrControl}
	pc, err := lc.ListenPacket(context.Background(), "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udp listen %s: %w", addr, err)
	}
	return &UDPListener{conn: pc.(*net.UDPConn), addr: addr, table: table}, nil
}

func (l *UDPListener) String() string { return fmt.Sprintf("udp-listener (%s)", l.addr) }

// Conn exposes the shared wildcard socket so the caller can build
// DatagramChildTransport values for peers it demultiplexes off Run's
// callback.
func (l *UDPListener) Conn() *net.UDPConn { return l.conn }

// Run reads datagrams until the socket is closed, dispatching each to
// onPacket for child-face demultiplexing.
func (l *UDPListener) Run(onPacket func(peer *net.UDPAddr, b []byte)) {
	buf := make([]byte, 64*1024)
	for {
		n, peer, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if l.closed {
				return
			}
			core.Log.Warn(l, "udp read failed", "err", err)
			continue
		}
		frame := append([]byte(nil), buf[:n]...)
		onPacket(peer, frame)
	}
}

func (l *UDPListener) Close() {
	l.closed = true
	l.conn.Close()
}

// DatagramChildTransport is the per-peer logical transport created for a
// datagram demuxed off the wildcard socket. It never touches the network
// itself: SendFrame writes through the shared listener socket to the
// peer address it was demultiplexed from.
type DatagramChildTransport struct {
	transportBase
	conn *net.UDPConn
	peer *net.UDPAddr
}

// NewDatagramChildTransport wraps a (shared socket, peer) pair as a
// Transport. RunReceive is a no-op: incoming bytes for this peer arrive
// via the listener's read loop and are pushed in by the caller instead.
func NewDatagramChildTransport(conn *net.UDPConn, peer *net.UDPAddr, mtu int) *DatagramChildTransport {
	t := &DatagramChildTransport{conn: conn, peer: peer}
	t.init(conn.LocalAddr().String(), peer.String(), true, mtu)
	t.running.Store(true)
	return t
}

func (t *DatagramChildTransport) String() string {
	return fmt.Sprintf("udp-transport (peer=%s)", t.peer)
}

func (t *DatagramChildTransport) GetSendQueueSize() uint64 {
	raw, err := t.conn.SyscallConn()
	if err != nil {
		return 0
	}
	return sendQueueSize(raw)
}

func (t *DatagramChildTransport) SendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if _, err := t.conn.WriteToUDP(frame, t.peer); err != nil {
		return
	}
	t.nOutBytes.Add(uint64(len(frame)))
}

// Deliver feeds one datagram already read by the shared listener into
// this child's receive callback; there is no independent read loop.
func (t *DatagramChildTransport) Deliver(frame []byte, onFrame func([]byte)) {
	t.nInBytes.Add(uint64(len(frame)))
	onFrame(frame)
}

// RunReceive blocks until closed: all actual delivery happens through
// Deliver, called by the listener's dispatch loop.
func (t *DatagramChildTransport) RunReceive(onFrame func([]byte)) {}

func (t *DatagramChildTransport) Close() {
	t.running.Store(false)
}

// ScrubAddr normalizes a UDP peer address to the table-key string used
// for datagram demultiplexing (IP + port, no zone/scope noise).
func ScrubAddr(addr *net.UDPAddr) string {
	return addr.IP.String() + ":" + fmt.Sprint(addr.Port)
}

// OutboundUDPTransport is a connected (non-wildcard) UDP socket: the
// internal client's newface verb dials one of these per peer, unlike the single shared wildcard socket UDPListener demuxes
// incoming peers onto.
type OutboundUDPTransport struct {
	transportBase
	conn *net.UDPConn
}

// DialUDP opens an outbound connected UDP socket.
func DialUDP(addr string, mtu int) (*OutboundUDPTransport, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udp resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("udp dial %s: %w", addr, err)
	}
	t := &OutboundUDPTransport{conn: conn}
	t.init(conn.LocalAddr().String(), conn.RemoteAddr().String(), true, mtu)
	t.running.Store(true)
	return t, nil
}

func (t *OutboundUDPTransport) String() string {
	return fmt.Sprintf("udp-transport (peer=%s)", t.remoteAddr)
}

func (t *OutboundUDPTransport) GetSendQueueSize() uint64 {
	raw, err := t.conn.SyscallConn()
	if err != nil {
		return 0
	}
	return sendQueueSize(raw)
}

func (t *OutboundUDPTransport) SendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if _, err := t.conn.Write(frame); err != nil {
		return
	}
	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *OutboundUDPTransport) RunReceive(onFrame func([]byte)) {
	defer t.Close()
	buf := make([]byte, 64*1024)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			t.nInBytes.Add(uint64(n))
			onFrame(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			return
		}
	}
}

func (t *OutboundUDPTransport) Close() {
	if t.running.Swap(false) {
		t.conn.Close()
	}
}
