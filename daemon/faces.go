package daemon

import (
	"fmt"
	"net"
	"strings"

	"github.com/ccnxgo/ccnd/core"
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/table"
	"github.com/ccnxgo/ccnd/wire"
)

// streamBuffer accumulates raw chunks from a stream transport until a
// full TLV frame is available, since StreamTransport.RunReceive carries
// no message-framing guarantee across reads (face/tcp.go).
type streamBuffer struct {
	buf []byte
}

// registerFace hands transport to the face table and starts its receive
// goroutine; the goroutine itself never touches FIB/PIT/CS state, it only
// decodes bytes and posts complete messages onto the main loop's channel.
func (d *Daemon) registerFace(transport face.Transport, flags face.Flags) *face.Face {
	f := d.Faces.Register(transport, flags, -1)
	d.Adj.OnFaceCreated(f.ID(), flags)
	d.autoRegister(f)
	go d.runFaceReceive(f)
	return f
}

// autoRegister points every CCND_AUTOREG prefix at a newly created
// non-GG face, so remote peers become reachable without an explicit
// prefixreg exchange.
func (d *Daemon) autoRegister(f *face.Face) {
	if f.Flags().Has(face.FlagGG) {
		return
	}
	for _, uri := range d.Config.Core.AutoReg {
		name := wire.NameFromStr(uri)
		if len(name) == 0 {
			core.Log.Warn(d, "autoreg uri ignored", "uri", uri)
			continue
		}
		d.FIB.Register(name, f.ID(), table.ForwardActive|table.ForwardChildInherit, 0)
	}
}

// runFaceReceive drives one face's transport until it closes, then tears
// down the face's table bookkeeping.
func (d *Daemon) runFaceReceive(f *face.Face) {
	if f.Transport().IsDatagram() {
		f.Transport().RunReceive(func(b []byte) { d.decodeDatagramFrame(f, b) })
	} else {
		sb := &streamBuffer{}
		f.Transport().RunReceive(func(b []byte) { d.decodeStreamChunk(f, sb, b) })
	}
	d.Adj.OnFaceDestroyed(f.ID())
	d.FIB.UnregisterFace(f.ID())
	d.Faces.Destroy(f.ID())
}

// decodeDatagramFrame handles a transport that already delivers complete,
// independently-framed messages (datagram sockets, WebSocket,
// WebTransport, the internal pseudo-face): one onFrame call, one message.
func (d *Daemon) decodeDatagramFrame(f *face.Face, b []byte) {
	msg, _, err := wire.Decode(b)
	if err != nil {
		core.Log.Warn(d, "malformed datagram discarded", "face", f.ID(), "err", err)
		return
	}
	d.post(f, incomingPayload{msg: msg, raw: append([]byte(nil), b...)})
}

// decodeStreamChunk appends a raw read to sb and extracts every complete
// frame now available, closing the face if a fully-buffered frame still
// fails to decode (a genuinely malformed message, not a truncated read —
// see wire.FrameLen's doc comment).
func (d *Daemon) decodeStreamChunk(f *face.Face, sb *streamBuffer, chunk []byte) {
	sb.buf = append(sb.buf, chunk...)
	for {
		n, ok := wire.FrameLen(sb.buf)
		if !ok {
			break
		}
		frame := sb.buf[:n]
		msg, _, err := wire.Decode(frame)
		if err != nil {
			core.Log.Warn(d, "malformed message, closing face", "face", f.ID(), "err", err)
			f.Transport().Close()
			sb.buf = nil
			return
		}
		d.post(f, incomingPayload{msg: msg, raw: append([]byte(nil), frame...)})
		sb.buf = sb.buf[n:]
	}
	if len(sb.buf) == 0 {
		sb.buf = nil
	}
}

// ListenAndServe binds every listener named in Config.Faces.ListenOn,
// given in "scheme://addr" form: tcp://, udp://, unix://, ws://, wt://,
// and mcast:// (a UDP multicast group, optionally "group:port@iface").
func (d *Daemon) ListenAndServe() error {
	for _, spec := range d.Config.Faces.ListenOn {
		if err := d.listenOne(spec); err != nil {
			return err
		}
	}
	return nil
}

func (d *Daemon) listenOne(spec string) error {
	scheme, addr, ok := strings.Cut(spec, "://")
	if !ok {
		return fmt.Errorf("daemon: malformed listen spec %q", spec)
	}
	switch scheme {
	case "tcp":
		return d.listenTCP(addr)
	case "udp":
		return d.listenUDP(addr)
	case "unix":
		return d.listenUnix(addr)
	case "ws":
		return d.listenWebSocket(addr)
	case "wt":
		return d.listenWebTransport(addr)
	case "mcast":
		return d.listenMulticast(addr)
	default:
		return fmt.Errorf("daemon: unknown listen scheme %q", scheme)
	}
}

func (d *Daemon) listenTCP(addr string) error {
	ln, err := face.NewTCPListener(addr, func(conn net.Conn) {
		t := face.NewStreamTransport(conn, d.Config.Faces.Mtu)
		d.registerFace(t, face.FlagUndecided)
	})
	if err != nil {
		return err
	}
	go ln.Run()
	d.listeners = append(d.listeners, ln)
	return nil
}

func (d *Daemon) listenUnix(path string) error {
	ln, err := face.NewUnixListener(path, func(conn net.Conn) {
		t := face.NewStreamTransport(conn, d.Config.Faces.Mtu)
		d.registerFace(t, face.FlagLocal|face.FlagGG)
	})
	if err != nil {
		return err
	}
	go ln.Run()
	d.listeners = append(d.listeners, ln)
	return nil
}

func (d *Daemon) listenUDP(addr string) error {
	ln, err := face.NewUDPListener(addr, d.Faces)
	if err != nil {
		return err
	}
	// A wildcard UDP socket has no connection events of its own to accept,
	// so it gets one placeholder "parent" face purely to key the table's
	// datagram demux: its own transport never carries bytes.
	parent := d.registerFace(face.NewNullTransport(), face.FlagPassive|face.FlagDatagram)
	go ln.Run(func(peer *net.UDPAddr, b []byte) {
		d.deliverUDP(ln, parent, peer, b)
	})
	d.listeners = append(d.listeners, ln)
	return nil
}

// deliverUDP demultiplexes one datagram onto its (possibly freshly
// created) child face: one socket, many peers. A loopback source earns
// the GG flag up front.
func (d *Daemon) deliverUDP(ln *face.UDPListener, parent *face.Face, peer *net.UDPAddr, b []byte) {
	key := face.ScrubAddr(peer)
	flags := face.FlagUndecided | face.FlagDatagram
	if peer.IP.IsLoopback() {
		flags |= face.FlagGG
	}
	child, created := d.Faces.FindOrCreateDatagramChild(parent, key, flags, func() face.Transport {
		return face.NewDatagramChildTransport(ln.Conn(), peer, d.Config.Faces.Mtu)
	})
	if created {
		core.Log.Info(d, "new udp peer", "peer", key)
		d.Adj.OnFaceCreated(child.ID(), child.Flags())
		d.autoRegister(child)
	}
	dt := child.Transport().(*face.DatagramChildTransport)
	dt.Deliver(b, func(frame []byte) { d.decodeDatagramFrame(child, frame) })
}

// listenMulticast joins a UDP multicast group as one long-lived face:
// PERMANENT (never swept), never adjacency-negotiated, and prioritized
// ahead of unicast by the dispatch loop so a packet arriving both ways
// is attributed to the multicast face.
func (d *Daemon) listenMulticast(addr string) error {
	group, iface, _ := strings.Cut(addr, "@")
	t, err := face.NewMulticastUDPTransport(group, iface, d.Config.Faces.Mtu)
	if err != nil {
		return err
	}
	f := d.registerFace(t, face.FlagMulticast|face.FlagDatagram|face.FlagPermanent)
	core.Log.Info(d, "joined multicast group", "group", group, "face", f.ID())
	return nil
}

func (d *Daemon) listenWebSocket(addr string) error {
	ln := face.NewWebSocketListener(face.WebSocketListenerConfig{Addr: addr}, func(t *face.WebSocketTransport) {
		d.registerFace(t, face.FlagUndecided)
	})
	go ln.Run()
	d.listeners = append(d.listeners, ln)
	return nil
}

func (d *Daemon) listenWebTransport(addr string) error {
	cfg := face.WebTransportListenerConfig{
		Addr:    addr,
		TLSCert: d.Config.Faces.TLSCert,
		TLSKey:  d.Config.Faces.TLSKey,
	}
	ln, err := face.NewWebTransportListener(cfg, func(t *face.WebTransportTransport) {
		d.registerFace(t, face.FlagUndecided)
	})
	if err != nil {
		return err
	}
	go ln.Run()
	d.listeners = append(d.listeners, ln)
	return nil
}
