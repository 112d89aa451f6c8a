// Package adjacency implements the two-daemon GUID rendezvous protocol:
// peer daemons on a datagram face agree on a shared
// random 12-byte adjacency GUID so each can uniquely name the link, then
// register a ccnx:/%C1.M.FACE/<guid> route pointing at that face.
//
// The Ctx interface follows the same narrow-adapter pattern daemon/ctx.go
// uses for strategy.Ctx and daemon/internalclient.go for internalclient.Ctx:
// the negotiator owns only its per-face state machine, and reaches the
// running daemon exclusively through the Ctx interface below.
package adjacency

import (
	"bytes"
	"fmt"

	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/wire"
)

// Root is the well-known namespace the adjacency protocol's Interests
// and the per-link route it eventually registers both live under
// (ccnx:/%C1.M.FACE/...).
var Root = wire.NameFromStr("ccnx:/%C1.M.FACE")

// Bits is the per-face negotiation state machine:
// {SOL,OFR,CRQ,DAT}_{SENT,RECV}, TIMEDWAIT, PINGING, RETRYING, ACTIVE.
type Bits uint16

const (
	SolSent Bits = 1 << iota
	SolRecv
	OfrSent
	OfrRecv
	CrqSent
	CrqRecv
	DatSent
	DatRecv
	TimedWait
	Pinging
	Retrying
	Active
)

func (b Bits) Has(mask Bits) bool { return b&mask == mask }

// guidLen is the adjacency GUID's fixed size.
const guidLen = 12

// halfLen splits a GUID component into its low (randomized) and high
// (proposer-identifying) halves.
const halfLen = guidLen / 2

// refreshMicros is the commit-request refresh interval (every ~120 seconds).
const refreshMicros = 120_000_000

// timedWaitLoMicros/timedWaitHiMicros bound the backoff after two
// consecutive refresh failures (TIMEDWAIT for ~10-15 s).
const (
	timedWaitLoMicros = 10_000_000
	timedWaitHiMicros = 15_000_000
)

// solicitJitterLoMicros/solicitJitterHiMicros bound the initial,
// jittered solicit delay a newly eligible face schedules.
const (
	solicitJitterLoMicros = 50_000
	solicitJitterHiMicros = 500_000
)

// State is one face's adjacency negotiation record.
type State struct {
	Bits     Bits
	Our6     []byte // our proposed high-6 bytes, fixed for the life of one negotiation attempt
	GUID     []byte // the agreed 12-byte GUID, once known
	failures int
}

// Ctx is the narrow surface the negotiator needs from a running daemon:
// enough to send a raw Interest out one face, sign replies, register the
// resulting route, and arm timers — without a dependency on the daemon
// package itself. Replies to incoming Interests are returned directly
// from the On* handlers below and sent by whatever dispatched the
// Interest in the first place (internalclient's reply path), so Ctx
// needs no outbound ContentObject method.
type Ctx interface {
	RandomBytes(n int) []byte
	Schedule(delayMicros int64, fn func(cancelled bool))

	// SendInterest transmits a raw Interest out f, bypassing the PIT:
	// adjacency negotiation is a point-to-point exchange with a specific
	// face, never a FIB-routed lookup.
	SendInterest(f face.ID, in *wire.Interest)

	Sign(body []byte) []byte

	// RegisterRoute adds a permanent FIB entry for name pointing at f,
	// the commit step's "register a per-link URI".
	RegisterRoute(name wire.Name, f face.ID)
	// UnregisterRoute removes a previously registered adjacency route,
	// used on full reset.
	UnregisterRoute(name wire.Name, f face.ID)

	SetFaceADJ(f face.ID, guid []byte)
	ClearFaceADJ(f face.ID)

	Notice(line string)
}

// Negotiator drives every face's adjacency state machine. It is owned
// by the daemon and is not safe for concurrent use, matching every other
// table in this repo.
type Negotiator struct {
	ctx    Ctx
	states map[face.ID]*State
}

// New builds an empty Negotiator bound to ctx.
func New(ctx Ctx) *Negotiator {
	return &Negotiator{ctx: ctx, states: make(map[face.ID]*State)}
}

func (n *Negotiator) state(f face.ID) *State {
	s, ok := n.states[f]
	if !ok {
		s = &State{}
		n.states[f] = s
	}
	return s
}

// String satisfies fmt.Stringer for logging.
func (n *Negotiator) String() string { return "adjacency" }

// Eligible reports whether a face qualifies for adjacency negotiation at
// all (not PASSIVE, not GG, not MCAST).
func Eligible(flags face.Flags) bool {
	return !flags.Has(face.FlagPassive) && !flags.Has(face.FlagGG) && !flags.Has(face.FlagMulticast)
}

// OnFaceCreated schedules a jittered initial Solicit for a newly
// eligible face.
func (n *Negotiator) OnFaceCreated(f face.ID, flags face.Flags) {
	if !Eligible(flags) {
		return
	}
	jitter := randRange(n.ctx, solicitJitterLoMicros, solicitJitterHiMicros)
	n.ctx.Schedule(jitter, func(cancelled bool) {
		if cancelled {
			return
		}
		n.Solicit(f)
	})
}

// randRange draws a uniform microsecond delay in [lo, hi) using ctx's
// random byte source, since Ctx exposes no direct integer RNG (kept
// minimal — the only randomness primitive adjacency needs beyond raw
// bytes is this one jitter helper).
func randRange(ctx Ctx, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	b := ctx.RandomBytes(8)
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	span := uint64(hi - lo)
	return lo + int64(v%span)
}

// Solicit sends the initial rendezvous Interest out f: a bounded Exclude
// whose low half is zero and whose high half carries our freshly chosen
// 6-byte proposal.
func (n *Negotiator) Solicit(f face.ID) {
	s := n.state(f)
	if s.Bits.Has(Active) {
		return
	}
	s.Our6 = n.ctx.RandomBytes(halfLen)
	lo := wire.NewComponent(string(make([]byte, guidLen)))
	hiBytes := append(make([]byte, halfLen), s.Our6...)
	hi := wire.NewComponent(string(hiBytes))
	in := &wire.Interest{
		Name:    Root,
		Exclude: wire.NewBoundedExclude(lo, hi),
	}
	s.Bits |= SolSent
	n.ctx.SendInterest(f, in)
	n.ctx.Notice(fmt.Sprintf("adjacency-solicit(%d)", f))
}

// OnIncomingInterest is the internalclient.AdjacencyHandler the daemon
// registers for Root: it recognizes a peer's Solicit (a bounded Exclude)
// and answers with a signed Offer naming the GUID it generated.
func (n *Negotiator) OnIncomingInterest(in *wire.Interest, from face.ID) (*wire.ContentObject, bool) {
	if !Root.IsPrefix(in.Name) {
		return nil, false
	}
	lo, hi, ok := in.Exclude.BoundedAny()
	if !ok {
		return nil, true // recognized namespace, not a shape we understand: answer nothing useful
	}
	return n.handleSolicit(from, lo, hi), true
}

// handleSolicit implements the Offer-arrival and mutual-solicit-tiebreak
// rules.
func (n *Negotiator) handleSolicit(from face.ID, lo, hi wire.Component) *wire.ContentObject {
	s := n.state(from)
	s.Bits |= SolRecv

	theirHigh := hi.Val[halfLen:]

	if s.Bits.Has(SolSent) && !s.Bits.Has(OfrSent) && !s.Bits.Has(OfrRecv) {
		// Mutual solicit: both sides proposed before either offered. The
		// side with the lexicographically greater proposed bytes wins the
		// right to name the GUID; the loser
		// discards its own guess and waits for the winner's Offer instead
		// of generating one itself.
		if bytes.Compare(s.Our6, theirHigh) > 0 {
			return n.makeOffer(s, from, theirHigh)
		}
		s.Our6 = nil
		return nil
	}

	return n.makeOffer(s, from, theirHigh)
}

// makeOffer generates a GUID inside the solicited range — fresh
// randomness in the low half, the soliciting peer's bytes preserved in
// the high half — records it, and builds the signed key-object reply
// naming it: generate a GUID in the bounded range and publish a signed
// key-object naming the face GUID.
func (n *Negotiator) makeOffer(s *State, from face.ID, theirHigh []byte) *wire.ContentObject {
	guid := append(n.ctx.RandomBytes(halfLen), theirHigh...)
	s.GUID = guid
	s.Bits |= OfrSent

	name := Root.Append(wire.NewComponent(string(guid)))
	obj := &wire.ContentObject{
		Name:    name,
		Payload: guid,
		SignedInfo: wire.SignedInfo{
			Type: wire.ContentTypeKey,
		},
	}
	obj.Signature = n.ctx.Sign(wire.EncodeContent(obj))
	n.ctx.Notice(fmt.Sprintf("adjacency-offer(%d,%x)", from, guid))
	return obj
}

// OnOfferReply is called when a ContentObject arrives on f under Root
// with our own Solicit still outstanding: it records the offered GUID
// and, once both sides have sent and received an Offer, begins the
// commit step.
func (n *Negotiator) OnOfferReply(f face.ID, obj *wire.ContentObject) bool {
	if !Root.IsPrefix(obj.Name) {
		return false
	}
	s := n.state(f)
	if !s.Bits.Has(SolSent) || s.Bits.Has(Active) {
		return true // consumed, nothing left for the ordinary CS/PIT path
	}
	s.GUID = append([]byte(nil), obj.Payload...)
	s.Bits |= OfrRecv
	n.ctx.Notice(fmt.Sprintf("adjacency-offer-recv(%d,%x)", f, s.GUID))

	if s.Bits.Has(OfrSent) {
		n.commit(f, s)
	}
	return true
}

// commit sends the commit-request Interest naming the agreed GUID,
// marking CRQ_SENT.
func (n *Negotiator) commit(f face.ID, s *State) {
	if len(s.GUID) != guidLen {
		return
	}
	name := Root.Append(wire.NewComponent(string(s.GUID)), wire.NewComponent("commit"))
	s.Bits |= CrqSent
	n.ctx.SendInterest(f, &wire.Interest{Name: name})
}

// OnCommitRequest answers a peer's commit-request Interest: acknowledge
// with a signed reply naming the same GUID and, on our side, finish the
// handshake too: each side sends the commit-request and, on receiving
// the counterpart data, sets DAT_SENT and ACTIVE.
func (n *Negotiator) OnCommitRequest(in *wire.Interest, from face.ID) (*wire.ContentObject, bool) {
	if len(in.Name) != len(Root)+2 || !Root.IsPrefix(in.Name) || in.Name[len(Root)+1].String() != "commit" {
		return nil, false
	}
	guid := in.Name[len(Root)].Val
	s := n.state(from)
	s.Bits |= CrqRecv
	if s.GUID == nil {
		s.GUID = append([]byte(nil), guid...)
	}

	obj := &wire.ContentObject{
		Name:    in.Name,
		Payload: s.GUID,
		SignedInfo: wire.SignedInfo{
			Type: wire.ContentTypeData,
		},
	}
	obj.Signature = n.ctx.Sign(wire.EncodeContent(obj))
	s.Bits |= DatSent
	n.finishIfCommitted(from, s)
	return obj, true
}

// OnCommitReply handles the commit acknowledgement arriving as a
// ContentObject on f, completing the handshake on our side too.
func (n *Negotiator) OnCommitReply(f face.ID, obj *wire.ContentObject) bool {
	if !Root.IsPrefix(obj.Name) || len(obj.Name) != len(Root)+2 {
		return false
	}
	if obj.Name[len(Root)+1].String() != "commit" {
		return false
	}
	s := n.state(f)
	if !s.Bits.Has(CrqSent) {
		return true
	}
	s.Bits |= DatRecv
	n.finishIfCommitted(f, s)
	return true
}

// finishIfCommitted promotes a face to ACTIVE once both the commit
// request and its acknowledgement have crossed in both directions,
// registering the per-link route.
func (n *Negotiator) finishIfCommitted(f face.ID, s *State) {
	if s.Bits.Has(Active) {
		return
	}
	if !(s.Bits.Has(CrqSent) && s.Bits.Has(DatSent) && s.Bits.Has(DatRecv)) {
		return
	}
	s.Bits |= Active
	s.Bits &^= TimedWait | Retrying
	s.failures = 0

	n.ctx.SetFaceADJ(f, s.GUID)
	name := Root.Append(wire.NewComponent(string(s.GUID)))
	n.ctx.RegisterRoute(name, f)
	n.ctx.Notice(fmt.Sprintf("adjacency-active(%d,%x,%s)", f, s.GUID, name))

	n.scheduleRefresh(f)
}

// scheduleRefresh arms the periodic commit-request refresh (every ~120 seconds, issue a commit-request again).
func (n *Negotiator) scheduleRefresh(f face.ID) {
	n.ctx.Schedule(refreshMicros, func(cancelled bool) {
		if cancelled {
			return
		}
		n.refresh(f)
	})
}

// refresh re-sends the commit-request on an already-ACTIVE face; two
// consecutive unanswered refreshes drop the face into TIMEDWAIT and then
// a full reset.
func (n *Negotiator) refresh(f face.ID) {
	s, ok := n.states[f]
	if !ok || !s.Bits.Has(Active) {
		return
	}

	s.Bits |= Retrying
	name := Root.Append(wire.NewComponent(string(s.GUID)), wire.NewComponent("commit"))
	s.Bits &^= DatRecv
	n.ctx.SendInterest(f, &wire.Interest{Name: name})

	n.ctx.Schedule(refreshTimeoutMicros, func(cancelled bool) {
		if cancelled {
			return
		}
		n.refreshTimedOut(f)
	})
}

// refreshTimeoutMicros bounds how long a refresh waits for the peer's
// reply before counting it as a failure.
const refreshTimeoutMicros = 5_000_000

func (n *Negotiator) refreshTimedOut(f face.ID) {
	s, ok := n.states[f]
	if !ok || !s.Bits.Has(Active) {
		return
	}
	if s.Bits.Has(DatRecv) {
		// The reply arrived before this timeout fired; nothing to do.
		n.scheduleRefresh(f)
		return
	}

	s.failures++
	if s.failures < 2 {
		n.scheduleRefresh(f)
		return
	}

	n.enterTimedWait(f, s)
}

// enterTimedWait drops a face out of ACTIVE into a jittered backoff,
// then performs a full reset (TIMEDWAIT for ~10-15 s then full reset).
func (n *Negotiator) enterTimedWait(f face.ID, s *State) {
	name := Root.Append(wire.NewComponent(string(s.GUID)))
	n.ctx.UnregisterRoute(name, f)
	n.ctx.ClearFaceADJ(f)
	s.Bits = TimedWait
	n.ctx.Notice(fmt.Sprintf("adjacency-timedwait(%d)", f))

	wait := randRange(n.ctx, timedWaitLoMicros, timedWaitHiMicros)
	n.ctx.Schedule(wait, func(cancelled bool) {
		if cancelled {
			return
		}
		n.reset(f)
	})
}

// reset clears all negotiation state for f and restarts from Solicit
// after TIMEDWAIT runs out.
func (n *Negotiator) reset(f face.ID) {
	delete(n.states, f)
	n.Solicit(f)
}

// OnFaceDestroyed drops f's negotiation state; the FIB's own
// UnregisterFace sweep handles the route cleanup.
func (n *Negotiator) OnFaceDestroyed(f face.ID) {
	delete(n.states, f)
}

// State returns a copy of f's current negotiation bits, for tests and
// diagnostics.
func (n *Negotiator) State(f face.ID) (State, bool) {
	s, ok := n.states[f]
	if !ok {
		return State{}, false
	}
	return *s, true
}
