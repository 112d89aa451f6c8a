package face

import "sync/atomic"

// InternalTransport is a loopback pseudo-transport connecting the
// forwarder to an in-process peer: the internal client (face 0) sends
// and receives directly through Go channels rather than a socket, the
// same role ccnd's internal client connection plays against the
// forwarding core.
type InternalTransport struct {
	transportBase
	toPeer   chan []byte
	fromPeer chan []byte
	closeCh  chan struct{}
	closed   atomic.Bool
}

// NewInternalTransport builds a connected pair; Send on one side is
// delivered to RunReceive on the other.
func NewInternalTransport() (*InternalTransport, *InternalTransport) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)

	a := &InternalTransport{toPeer: ab, fromPeer: ba, closeCh: make(chan struct{})}
	b := &InternalTransport{toPeer: ba, fromPeer: ab, closeCh: make(chan struct{})}
	a.init("internal://a", "internal://b", false, 1<<20)
	b.init("internal://b", "internal://a", false, 1<<20)
	a.running.Store(true)
	b.running.Store(true)
	return a, b
}

func (t *InternalTransport) String() string { return "internal-transport" }

func (t *InternalTransport) GetSendQueueSize() uint64 { return uint64(len(t.toPeer)) }

func (t *InternalTransport) SendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	cp := append([]byte(nil), frame...)
	t.nOutBytes.Add(uint64(len(frame)))
	select {
	case t.toPeer <- cp:
	default:
		// peer not draining fast enough; drop rather than block the
		// single-threaded loop.
	}
}

func (t *InternalTransport) RunReceive(onFrame func([]byte)) {
	for {
		select {
		case frame, ok := <-t.fromPeer:
			if !ok {
				return
			}
			t.nInBytes.Add(uint64(len(frame)))
			onFrame(frame)
		case <-t.closeCh:
			return
		}
	}
}

func (t *InternalTransport) Close() {
	if t.closed.CompareAndSwap(false, true) {
		t.running.Store(false)
		close(t.closeCh)
	}
}
