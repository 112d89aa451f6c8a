package face

import (
	"fmt"
	"sync"
	"time"
)

// Face is the daemon's abstraction of a communication endpoint: a
// listener, a stream peer, a connected or wildcard datagram peer, the
// internal pseudo-face, or a multicast face.
type Face struct {
	id        ID
	transport Transport
	flags     Flags
	meters    Meters
	attrs     attrCells

	mu       sync.Mutex
	outbuf   [][]byte // deferred output, retried on writable readiness
	queues   map[DelayClass]*ContentQueue
	guid     []byte // negotiated adjacency GUID, if any

	// sendTo is nil for most faces (send on their own transport); for a
	// child datagram face it names the parent face whose socket actually
	// carries the bytes.
	sendTo *Face
}

// NewFace wraps a transport with the given initial flags.
func NewFace(id ID, t Transport, flags Flags) *Face {
	t.setFaceID(id)
	return &Face{id: id, transport: t, flags: flags, queues: make(map[DelayClass]*ContentQueue)}
}

// ID returns the face's stable identifier.
func (f *Face) ID() ID { return f.id }

// Transport returns the underlying I/O strategy.
func (f *Face) Transport() Transport { return f.transport }

// Flags returns the current flag bitmask.
func (f *Face) Flags() Flags { return f.flags }

// SetFlags replaces the flag bitmask.
func (f *Face) SetFlags(flags Flags) { f.flags = flags }

// AddFlags ORs flags into the current bitmask.
func (f *Face) AddFlags(flags Flags) { f.flags = f.flags.Set(flags) }

// ClearFlags clears flags from the current bitmask.
func (f *Face) ClearFlags(flags Flags) { f.flags = f.flags.Clear(flags) }

// Meters returns the face's activity counters.
func (f *Face) Meters() *Meters { return &f.meters }

// GUID returns the negotiated adjacency GUID, or nil if none.
func (f *Face) GUID() []byte { return f.guid }

// SetGUID records the negotiated adjacency GUID.
func (f *Face) SetGUID(guid []byte) { f.guid = guid }

// SendTarget is the face whose transport actually carries bytes for this
// face: itself, unless this is a datagram child sharing its parent's
// receiving socket.
func (f *Face) SendTarget() *Face {
	if f.sendTo != nil {
		return f.sendTo
	}
	return f
}

// SetSendTarget records the parent face a datagram child should send
// through.
func (f *Face) SetSendTarget(parent *Face) { f.sendTo = parent }

// GetAttr reads a registered attribute cell (bit or unsigned value).
func (f *Face) GetAttr(idx AttrIndex) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attrs.GetCell(idx)
}

// SetAttr writes a registered attribute cell.
func (f *Face) SetAttr(idx AttrIndex, v uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attrs.SetCell(idx, v)
}

// GetAttrBit reads a registered single-bit attribute.
func (f *Face) GetAttrBit(idx AttrIndex) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attrs.GetBit(idx)
}

// SetAttrBit writes a registered single-bit attribute.
func (f *Face) SetAttrBit(idx AttrIndex, v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attrs.SetBit(idx, v)
}

// NonZeroAttrs reports every attribute with a non-zero value, for the
// faceattr strategy's diagnostic dump.
func (f *Face) NonZeroAttrs() map[AttrIndex]uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attrs.NonZero()
}

// Queue returns (creating lazily if needed) the ContentQueue for the
// given delay class; pacing parameters only apply on first creation.
func (f *Face) Queue(class DelayClass, nsPerKB int64, minDelay, randDelay time.Duration) *ContentQueue {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queues[class]
	if !ok {
		q = NewContentQueue(class, nsPerKB, minDelay, randDelay)
		f.queues[class] = q
	}
	return q
}

// Send writes bytes directly via SendFrame, or appends to the deferred
// output buffer if the caller detected backpressure.
func (f *Face) Send(frame []byte) {
	target := f.SendTarget().transport
	if !target.IsRunning() {
		return
	}
	target.SendFrame(frame)
}

// DeferOutput appends bytes to the face's deferred output buffer, to be
// retried when the readiness loop reports the transport writable again.
func (f *Face) DeferOutput(frame []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outbuf = append(f.outbuf, frame)
}

// DrainDeferred flushes as much of the deferred output buffer as
// possible, removing each frame once sent.
func (f *Face) DrainDeferred() {
	f.mu.Lock()
	pending := f.outbuf
	f.outbuf = nil
	f.mu.Unlock()

	for _, frame := range pending {
		f.transport.SendFrame(frame)
	}
}

// HasDeferred reports whether any output is waiting for writable
// readiness.
func (f *Face) HasDeferred() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outbuf) > 0
}

// String satisfies fmt.Stringer for logging.
func (f *Face) String() string {
	return fmt.Sprintf("face(id=%d flags=%#x)", f.id, f.flags)
}
