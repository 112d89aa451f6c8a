package face

import (
	"sync/atomic"
	"time"
)

// Transport is the per-face I/O strategy: a listener-accepted stream, a
// connected or wildcard datagram socket, the loopback internal pseudo-face,
// or a transport that drops everything.
type Transport interface {
	String() string
	setFaceID(id ID)

	LocalAddr() string
	RemoteAddr() string
	IsDatagram() bool
	MTU() int
	SetMTU(mtu int)

	// GetSendQueueSize reports the number of queued-but-unsent bytes.
	GetSendQueueSize() uint64
	// SendFrame transmits (or buffers, on backpressure) one frame.
	SendFrame(frame []byte)
	// RunReceive reads frames in a loop until the transport closes,
	// delivering each to onFrame.
	RunReceive(onFrame func([]byte))
	// IsRunning reports whether the transport is still up.
	IsRunning() bool
	// Close tears the transport down; RunReceive must return afterward.
	Close()

	NInBytes() uint64
	NOutBytes() uint64
}

// transportBase factors the counters and bookkeeping common to every
// Transport implementation.
type transportBase struct {
	faceID    ID
	running   atomic.Bool
	localAddr string
	remoteAddr string
	datagram  bool
	mtu       int

	nInBytes  atomic.Uint64
	nOutBytes atomic.Uint64
}

func (t *transportBase) init(local, remote string, datagram bool, mtu int) {
	t.localAddr = local
	t.remoteAddr = remote
	t.datagram = datagram
	t.mtu = mtu
}

func (t *transportBase) setFaceID(id ID) { t.faceID = id }

// LocalAddr returns the transport's local endpoint string.
func (t *transportBase) LocalAddr() string { return t.localAddr }

// RemoteAddr returns the transport's peer endpoint string.
func (t *transportBase) RemoteAddr() string { return t.remoteAddr }

// IsDatagram reports whether the transport is message-oriented (true) or
// stream-oriented (false).
func (t *transportBase) IsDatagram() bool { return t.datagram }

// MTU returns the maximum frame size this transport will send.
func (t *transportBase) MTU() int { return t.mtu }

// SetMTU changes the maximum frame size (CCND_MTU stuffing target, or a
// protocol-specific ceiling).
func (t *transportBase) SetMTU(mtu int) { t.mtu = mtu }

// IsRunning reports whether the transport is currently accepting sends.
func (t *transportBase) IsRunning() bool { return t.running.Load() }

// NInBytes returns the cumulative bytes received.
func (t *transportBase) NInBytes() uint64 { return t.nInBytes.Load() }

// NOutBytes returns the cumulative bytes sent.
func (t *transportBase) NOutBytes() uint64 { return t.nOutBytes.Load() }

// Expirable is implemented by transports with an inactivity lifetime
// (on-demand UDP peers); the face table sweeps expired ones.
type Expirable interface {
	ExpiresAt() time.Time
}
