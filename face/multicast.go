/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"
	"net"
)

// MulticastUDPTransport is a UDP multicast group membership: a
// multicast listener joined to the group for receiving, plus a separate
// connection dialed to the group address for sending, so that outbound
// frames carry a unicast source address other group members can demux.
type MulticastUDPTransport struct {
	transportBase
	sendConn *net.UDPConn
	recvConn *net.UDPConn
	group    *net.UDPAddr
}

// NewMulticastUDPTransport joins the multicast group at groupAddr
// (e.g. "224.0.23.170:9695") on the named interface, or the system
// default interface when ifaceName is empty.
func NewMulticastUDPTransport(groupAddr, ifaceName string, mtu int) (*MulticastUDPTransport, error) {
	gaddr, err := net.ResolveUDPAddr("udp", groupAddr)
	if err != nil {
		return nil, fmt.Errorf("multicast resolve %s: %w", groupAddr, err)
	}
	if !gaddr.IP.IsMulticast() {
		return nil, fmt.Errorf("multicast group %s: not a multicast address", groupAddr)
	}

	var iface *net.Interface
	if ifaceName != "" {
		iface, err = net.InterfaceByName(ifaceName)
		if err != nil {
			return nil, fmt.Errorf("multicast interface %s: %w", ifaceName, err)
		}
	}

	recvConn, err := net.ListenMulticastUDP("udp", iface, gaddr)
	if err != nil {
		return nil, fmt.Errorf("multicast join %s: %w", groupAddr, err)
	}

	dialer := &net.Dialer{Control: reuseAddrControl}
	c, err := dialer.Dial("udp", gaddr.String())
	if err != nil {
		recvConn.Close()
		return nil, fmt.Errorf("multicast send socket %s: %w", groupAddr, err)
	}

	t := &MulticastUDPTransport{
		sendConn: c.(*net.UDPConn),
		recvConn: recvConn,
		group:    gaddr,
	}
	t.init(t.sendConn.LocalAddr().String(), gaddr.String(), true, mtu)
	t.running.Store(true)
	return t, nil
}

func (t *MulticastUDPTransport) String() string {
	return fmt.Sprintf("multicast-udp-transport (group=%s)", t.group)
}

func (t *MulticastUDPTransport) GetSendQueueSize() uint64 {
	raw, err := t.sendConn.SyscallConn()
	if err != nil {
		return 0
	}
	return sendQueueSize(raw)
}

func (t *MulticastUDPTransport) SendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if _, err := t.sendConn.Write(frame); err != nil {
		return
	}
	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *MulticastUDPTransport) RunReceive(onFrame func([]byte)) {
	defer t.Close()
	buf := make([]byte, 64*1024)
	for {
		n, _, err := t.recvConn.ReadFromUDP(buf)
		if n > 0 {
			t.nInBytes.Add(uint64(n))
			onFrame(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			return
		}
	}
}

func (t *MulticastUDPTransport) Close() {
	if t.running.Swap(false) {
		t.sendConn.Close()
		t.recvConn.Close()
	}
}
