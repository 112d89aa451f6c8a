package daemon

import (
	"github.com/ccnxgo/ccnd/adjacency"
	"github.com/ccnxgo/ccnd/core"
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/sched"
	"github.com/ccnxgo/ccnd/table"
	"github.com/ccnxgo/ccnd/wire"
)

var _ adjacency.Ctx = (*adjacencyCtx)(nil)

// adjacencyCtx implements adjacency.Ctx against a running Daemon, the
// same narrow-adapter pattern strategyCtx and internalClientCtx use
// (daemon/ctx.go, daemon/internalclient.go).
type adjacencyCtx struct{ d *Daemon }

func (c *adjacencyCtx) RandomBytes(n int) []byte {
	b := make([]byte, n)
	c.d.rng.Read(b)
	return b
}

// Schedule wraps the daemon's scheduler with adjacency's simpler
// cancel-or-fire-once callback shape; adjacency never reschedules an
// event by returning a delay, it always arms a fresh one.
func (c *adjacencyCtx) Schedule(delayMicros int64, fn func(cancelled bool)) {
	c.d.Sched.Schedule(delayMicros, func(flags sched.Flags, evdata any, evint int) int64 {
		fn(flags == sched.FlagsCancel)
		return 0
	}, nil, 0)
}

// SendInterest transmits a raw Interest out f, stamping a nonce if the
// negotiator didn't set one, bypassing the PIT entirely: adjacency
// Interests are answered synchronously by the peer's own internal
// client, never routed through the FIB.
func (c *adjacencyCtx) SendInterest(f face.ID, in *wire.Interest) {
	if len(in.Nonce) == 0 {
		in.Nonce = c.d.randomNonce()
	}
	target, ok := c.d.Faces.Find(f)
	if !ok {
		return
	}
	frame, err := wire.Encode(wire.IncomingMessage{Interest: in})
	if err != nil {
		core.Log.Warn(c.d, "failed to encode adjacency interest", "err", err)
		return
	}
	target.Send(frame)
	target.Meters().InterestsOut.Add(1)
}

func (c *adjacencyCtx) Sign(body []byte) []byte { return c.d.Keystore.Sign(body) }

// RegisterRoute adds a permanent (expiry 0), capturing forwarding entry
// for the per-link adjacency URI.
func (c *adjacencyCtx) RegisterRoute(name wire.Name, f face.ID) {
	c.d.FIB.Register(name, f, table.ForwardActive|table.ForwardCapture, 0)
}

func (c *adjacencyCtx) UnregisterRoute(name wire.Name, f face.ID) {
	c.d.FIB.Unregister(name, f)
}

func (c *adjacencyCtx) SetFaceADJ(f face.ID, guid []byte) {
	ff, ok := c.d.Faces.Find(f)
	if !ok {
		return
	}
	ff.AddFlags(face.FlagADJ)
	ff.SetGUID(guid)
}

func (c *adjacencyCtx) ClearFaceADJ(f face.ID) {
	ff, ok := c.d.Faces.Find(f)
	if !ok {
		return
	}
	ff.ClearFlags(face.FlagADJ)
	ff.SetGUID(nil)
}

func (c *adjacencyCtx) Notice(line string) {
	d := c.d
	d.IntCli.NoticeLine(line)
	core.Log.Debug(d, line)
}

// adjacencyHandle is the internalclient.AdjacencyHandler registered for
// adjacency.Root: a commit-request takes priority over the solicit
// shape, since both exchanges share the same namespace prefix.
func (d *Daemon) adjacencyHandle(in *wire.Interest, from face.ID) (*wire.ContentObject, bool) {
	if obj, ok := d.Adj.OnCommitRequest(in, from); ok {
		return obj, true
	}
	return d.Adj.OnIncomingInterest(in, from)
}
