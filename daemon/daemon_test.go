package daemon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccnxgo/ccnd/core"
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/std/types/optional"
	"github.com/ccnxgo/ccnd/table"
	"github.com/ccnxgo/ccnd/wire"
)

// newTestDaemon builds a fully-wired Daemon against a scratch keystore
// directory, the same construction cmd/ccnd's startup sequence performs
// minus the network listeners.
func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	core.ResetQuit()
	cfg := core.DefaultConfig()
	cfg.Security.KeystoreDirectory = t.TempDir()
	d, err := New(cfg)
	require.NoError(t, err)
	return d
}

// attachPeer registers a fresh internal-transport-backed face on d and
// returns the peer's own end, so the test can push inbound frames and
// drain outbound ones without a real socket.
func attachPeer(d *Daemon, flags face.Flags) (*face.Face, *face.InternalTransport) {
	mine, theirs := face.NewInternalTransport()
	f := d.registerFace(mine, flags)
	return f, theirs
}

// fireDeferred runs the scheduler forward far enough that any delayed
// strategy send armed during this test (the default strategy's FIRST
// callout defers every non-best, non-tap upstream) has fired.
func fireDeferred(d *Daemon) {
	d.Sched.RunDue(time.Now().Add(200 * time.Millisecond))
}

func recvFrame(t *testing.T, peer *face.InternalTransport, timeout time.Duration) wire.IncomingMessage {
	t.Helper()
	var got []byte
	done := make(chan struct{})
	go func() {
		peer.RunReceive(func(b []byte) {
			got = b
			close(done)
		})
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a frame")
	}
	peer.Close()
	msg, _, err := wire.Decode(got)
	require.NoError(t, err)
	return msg
}

// TestCacheHit: a published ContentObject
// answers a matching Interest straight out of the Content Store, with no
// PIT entry ever created.
func TestCacheHit(t *testing.T) {
	d := newTestDaemon(t)

	pub, _ := attachPeer(d, face.FlagGG)
	obj := &wire.ContentObject{
		Name:    wire.NameFromStr("/test/hello"),
		Payload: []byte("world"),
	}
	obj.SignedInfo.FreshnessSeconds = optional.Some(60)
	raw, err := wire.Encode(wire.IncomingMessage{Content: obj})
	require.NoError(t, err)
	d.processContent(pub, obj, raw)
	assert.Equal(t, 0, d.PIT.Len())

	asker, peer := attachPeer(d, face.FlagGG)
	in := &wire.Interest{Name: wire.NameFromStr("/test/hello")}
	d.processInterest(asker, in)
	fireDeferred(d)

	assert.Equal(t, 0, d.PIT.Len())
	got := recvFrame(t, peer, time.Second)
	require.NotNil(t, got.Content)
	assert.Equal(t, []byte("world"), got.Content.Payload)
	assert.EqualValues(t, 1, asker.Meters().DataOut.Load())
}

// TestTwoHopForwarding: a prefix
// registered to face B forwards an Interest from face A exactly once,
// leaving one PIT entry with a pending downstream and an upstream send.
func TestTwoHopForwarding(t *testing.T) {
	d := newTestDaemon(t)

	fa, _ := attachPeer(d, face.FlagGG)
	fb, peerB := attachPeer(d, face.FlagGG)

	d.FIB.Register(wire.NameFromStr("/x"), fb.ID(), table.ForwardActive|table.ForwardChildInherit, 300)

	in := &wire.Interest{Name: wire.NameFromStr("/x/y"), Nonce: []byte{1, 2, 3, 4}}
	d.processInterest(fa, in)
	fireDeferred(d)

	require.Equal(t, 1, d.PIT.Len())
	e, ok := d.PIT.Lookup(in)
	require.True(t, ok)

	downs := e.Downstreams()
	require.Len(t, downs, 1)
	assert.Equal(t, fa.ID(), downs[0].Face)

	ups := e.Upstreams()
	require.Len(t, ups, 1)
	assert.Equal(t, fb.ID(), ups[0].Face)

	got := recvFrame(t, peerB, time.Second)
	require.NotNil(t, got.Interest)
	assert.True(t, got.Interest.Name.Equal(wire.NameFromStr("/x/y")))
}

// TestNonceLoopSuppression: a duplicate
// Interest carrying the same nonce as an already-pending entry does not
// trigger a second upstream send and is marked SUPDATA.
func TestNonceLoopSuppression(t *testing.T) {
	d := newTestDaemon(t)

	fa, _ := attachPeer(d, face.FlagGG)
	fb, peerB := attachPeer(d, face.FlagGG)
	d.FIB.Register(wire.NameFromStr("/x"), fb.ID(), table.ForwardActive|table.ForwardChildInherit, 300)

	nonce := []byte{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9}
	in1 := &wire.Interest{Name: wire.NameFromStr("/x/y"), Nonce: append([]byte(nil), nonce...)}
	d.processInterest(fa, in1)
	fireDeferred(d)
	require.Equal(t, 1, d.PIT.Len())
	recvFrame(t, peerB, time.Second) // drain the single upstream send
	require.EqualValues(t, 1, fb.Meters().InterestsOut.Load())

	in2 := &wire.Interest{Name: wire.NameFromStr("/x/y"), Nonce: append([]byte(nil), nonce...)}
	d.processInterest(fa, in2)
	fireDeferred(d)

	assert.Equal(t, 1, d.PIT.Len())
	assert.EqualValues(t, 1, fb.Meters().InterestsOut.Load(), "SUPDATA duplicate must not trigger a second upstream send")
}
