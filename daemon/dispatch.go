package daemon

import (
	"github.com/ccnxgo/ccnd/core"
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/sched"
	"github.com/ccnxgo/ccnd/strategy"
	"github.com/ccnxgo/ccnd/table"
	"github.com/ccnxgo/ccnd/wire"
)

// incomingPayload is one fully-framed message a face's receive goroutine
// decoded, kept alongside its original frame bytes: a ContentObject is
// stored and retransmitted byte-for-byte rather than re-encoded.
type incomingPayload struct {
	msg wire.IncomingMessage
	raw []byte
}

// pitNotifier wraps the strategy engine so the daemon can release a
// timed-out entry's outstanding-interest counters before handing the
// TIMEOUT callout to the strategy itself; every other op passes straight
// through.
type pitNotifier struct{ d *Daemon }

func (n *pitNotifier) NotifyPIT(e *table.InterestEntry, op int, f face.ID) {
	if op == int(strategy.OpTimeout) {
		for _, it := range e.Upstreams() {
			n.d.adjustOutstanding(it.Face, -1)
		}
	}
	n.d.Strat.NotifyPIT(e, op, f)
}

// dispatch processes one decoded message, unwrapping a LINK PDU into its
// constituent messages; this is the only function (besides the events the
// scheduler fires) that ever runs on the main loop's goroutine.
func (d *Daemon) dispatch(f *face.Face, m incomingPayload) {
	switch {
	case m.msg.Interest != nil:
		d.processInterest(f, m.msg.Interest)
	case m.msg.Content != nil:
		d.processContent(f, m.msg.Content, m.raw)
	case m.msg.Link != nil:
		for _, sub := range m.msg.Link.Messages {
			d.dispatch(f, incomingPayload{msg: sub})
		}
	case m.msg.Seq != nil:
		core.Log.Debug(d, "sequence probe", "face", f.ID(), "seq", m.msg.Seq.Seq)
	}
}

// processInterest implements the Interest arrival algorithm: scope-1
// drop, PIT duplicate coalescing (with nonce-loop SUPDATA suppression),
// Content Store hit, or a fresh entry handed to the strategy engine's
// FIRST callout.
func (d *Daemon) processInterest(f *face.Face, in *wire.Interest) {
	if reply, ok := d.IntCli.Handle(in, f.ID()); ok {
		d.sendInternalReply(f, reply)
		return
	}

	scope := -1
	if v, ok := in.Scope.Get(); ok {
		scope = v
	}
	if table.Scope1Dropped(scope, f.Flags()) {
		core.Log.Debug(d, "scope-1 interest dropped", "face", f.ID(), "name", in.Name)
		return
	}
	if len(in.Nonce) == 0 {
		in.Nonce = d.randomNonce()
	}

	now := d.Sched.Now()
	expiry := d.lifetimeExpiry(in, now)

	if e, ok := d.PIT.Lookup(in); ok {
		_, nonceDup := d.PIT.OnExistingEntry(e, f.ID(), in.Nonce, now, expiry)
		if nonceDup {
			core.Log.Trace(d, "SUPDATA nonce loop suppressed", "face", f.ID(), "name", in.Name)
			return
		}
		d.Strat.Notify(e, strategy.OpUpdate, f.ID())
		return
	}

	if entry, ok := d.CS.Match(in, now, d.acceptableFor(in)); ok {
		d.sendContentTo(f, entry)
		return
	}
	if d.serveFromPreciousStore(f, in) {
		return
	}

	npe := d.FIB.Intern(in.Name)
	e := d.PIT.NewEntry(in, f.ID(), npe, now, expiry, &pitNotifier{d: d})
	d.Strat.Notify(e, strategy.OpFirst, f.ID())
}

// lifetimeExpiry converts an Interest's clamped lifetime into an absolute
// scheduler tick.
func (d *Daemon) lifetimeExpiry(in *wire.Interest, now sched.Tick) sched.Tick {
	micros := in.ClampedLifetime().Microseconds()
	return now.Add(micros / sched.MicrosPerTick)
}

// acceptableFor builds the Content Store matching predicate applied
// beyond bare name-prefix ordering: suffix-count bounds and the
// differentiating component's Exclude test. PublisherKeyDigest filtering
// is out of scope (wire.ContentObject carries no publisher digest, per
// wire/tlv.go's documented reduced framing).
func (d *Daemon) acceptableFor(in *wire.Interest) func(*table.ContentEntry) bool {
	return func(e *table.ContentEntry) bool {
		suffixLen := len(e.NameKey) - len(in.Name)
		if suffixLen < 0 {
			return false
		}
		if v, ok := in.MinSuffixComponents.Get(); ok && suffixLen < v {
			return false
		}
		if v, ok := in.MaxSuffixComponents.Get(); ok && suffixLen > v {
			return false
		}
		if suffixLen > 0 && len(in.Exclude) > 0 && in.Exclude.Matches(e.NameKey[len(in.Name)]) {
			return false
		}
		return true
	}
}

// processContent handles an arriving ContentObject: insert into the
// Content Store, then walk every PIT entry rooted at or above content's
// published name (the intrusive per-prefix list fib.go's pitHead chains
// together) looking for a match, satisfying and serving each one found.
func (d *Daemon) processContent(f *face.Face, obj *wire.ContentObject, raw []byte) {
	if d.Adj.OnOfferReply(f.ID(), obj) || d.Adj.OnCommitReply(f.ID(), obj) {
		return
	}

	now := d.Sched.Now()
	candidates := d.pitCandidates(obj.Name)

	nonGG := !f.Flags().Has(face.FlagGG)
	entry, outcome := d.CS.Insert(obj, raw, now, len(candidates) == 0, nonGG)
	if outcome == table.InsertCollision {
		core.Log.Warn(d, "content name collision discarded", "name", obj.Name)
		return
	}

	for _, e := range candidates {
		if !d.acceptableFor(e.Interest)(entry) {
			continue
		}
		d.satisfyEntry(e, entry, f.ID())
	}

	if entry != nil && entry.Precious && d.Blob != nil {
		if err := d.Blob.Put(wire.EncodeName(entry.NameKey), raw); err != nil {
			core.Log.Warn(d, "failed to persist precious content", "name", obj.Name, "err", err)
		}
	}
}

// serveFromPreciousStore answers an exact name-including-digest Interest
// from the on-disk precious tier after a Content Store miss. Only a name
// whose final component is a digest can ever match, since the tier is
// keyed by full digest-extended names.
func (d *Daemon) serveFromPreciousStore(f *face.Face, in *wire.Interest) bool {
	if d.Blob == nil || len(in.Name) == 0 {
		return false
	}
	if in.Name[len(in.Name)-1].Typ != wire.TypeDigest {
		return false
	}
	frame, found, err := d.Blob.Get(wire.EncodeName(in.Name))
	if err != nil {
		core.Log.Warn(d, "precious store lookup failed", "name", in.Name, "err", err)
		return false
	}
	if !found {
		return false
	}
	f.Send(frame)
	f.Meters().DataOut.Add(1)
	f.Meters().OutBytes.Add(uint64(len(frame)))
	return true
}

// pitCandidates walks from the deepest existing FIB trie node along
// name's exact component path up to the root, collecting every PIT entry
// whose Interest name is a prefix of name.
func (d *Daemon) pitCandidates(name wire.Name) []*table.InterestEntry {
	var out []*table.InterestEntry
	for npe := d.FIB.LookupDeepest(name); npe != nil; npe = npe.Parent() {
		for e := npe.PITHead(); e != nil; e = e.NextAtNpe() {
			if e.Interest.Name.IsPrefix(name) {
				out = append(out, e)
			}
		}
	}
	return out
}

// satisfyEntry delivers content to every pending downstream of e, credits
// the strategy's SATISFIED callout for the face it arrived on (if that
// face was itself an upstream leg), releases e's outstanding-interest
// counters, and removes e from the PIT.
func (d *Daemon) satisfyEntry(e *table.InterestEntry, content *table.ContentEntry, arrivedOn face.ID) {
	for _, it := range e.Downstreams() {
		if df, ok := d.Faces.Find(it.Face); ok {
			d.sendContentTo(df, content)
		}
	}

	isUpstream := false
	for _, it := range e.Upstreams() {
		if it.Face == arrivedOn {
			isUpstream = true
		}
		d.adjustOutstanding(it.Face, -1)
	}
	if isUpstream {
		d.Strat.Notify(e, strategy.OpSatisfied, arrivedOn)
	}

	d.PIT.Satisfy(e)
}

// sendContentTo paces a cached ContentObject's stored frame out through
// f's ASAP delay-class queue: frames drain in arrival order, one per
// pacer firing, spaced by the configured data pause plus the queue's
// burst-rate budget.
func (d *Daemon) sendContentTo(f *face.Face, entry *table.ContentEntry) {
	q := f.Queue(face.DelayASAP, 0, d.Config.Pit.DataPause, 0)
	q.Enqueue(entry.Accession, entry.Wire)
	if !q.ArmPacer() {
		return
	}
	d.Sched.Schedule(0, func(flags sched.Flags, evdata any, evint int) int64 {
		if flags == sched.FlagsCancel {
			q.DisarmPacer()
			return 0
		}
		frame, ok := q.Dequeue()
		if !ok {
			q.DisarmPacer()
			return 0
		}
		f.Send(frame)
		f.Meters().DataOut.Add(1)
		f.Meters().OutBytes.Add(uint64(len(frame)))
		if q.Len() == 0 {
			q.DisarmPacer()
			return 0
		}
		if delay := q.PacingDelay(len(frame)).Microseconds(); delay > 0 {
			return delay
		}
		return 1
	}, f, 0)
}

// sendInternalReply writes a control-plane reply straight back to the
// requesting face, bypassing the Content Store and PIT entirely: the
// internal client's replies are never cached or coalesced across
// requesters.
func (d *Daemon) sendInternalReply(f *face.Face, obj *wire.ContentObject) {
	frame, err := wire.Encode(wire.IncomingMessage{Content: obj})
	if err != nil {
		core.Log.Warn(d, "failed to encode internal client reply", "err", err)
		return
	}
	f.Send(frame)
}

// transmitInterest encodes and writes e's Interest out f, bumping the
// face's InterestsOut meter. Missing/dead faces are silently skipped: the
// PIT's own expiry wheel reaps an upstream item nobody can answer.
func (d *Daemon) transmitInterest(e *table.InterestEntry, f face.ID) {
	target, ok := d.Faces.Find(f)
	if !ok {
		return
	}
	frame, err := wire.Encode(wire.IncomingMessage{Interest: e.Interest})
	if err != nil {
		core.Log.Warn(d, "failed to encode outgoing interest", "err", err)
		return
	}
	target.Send(frame)
	target.Meters().InterestsOut.Add(1)
}

// sendUpstreamRetry is table.PIT's SendUpstream callback: retransmit only, the PIT itself updates the item's
// expiry once this returns.
func (d *Daemon) sendUpstreamRetry(e *table.InterestEntry, f face.ID) {
	d.transmitInterest(e, f)
}

// forwardInterest is strategy.Ctx's SendInterest: create the upstream
// PitFaceItem on first use (crediting the outstanding-interest counter),
// refresh its expiry on a repeat send to the same face, and transmit.
func (d *Daemon) forwardInterest(entry *table.InterestEntry, f face.ID) {
	now := d.Sched.Now()
	expiry := d.lifetimeExpiry(entry.Interest, now)

	for _, it := range entry.Upstreams() {
		if it.Face == f {
			it.Expiry = expiry
			d.transmitInterest(entry, f)
			return
		}
	}

	entry.AddUpstream(f, expiry, false)
	d.adjustOutstanding(f, 1)
	d.transmitInterest(entry, f)
}

// adjustOutstanding credits or debits a face's outstanding-interest
// counter (face.Meters.OutstandingInterest), the load signal the
// loadsharing strategy reads via Ctx.OutstandingInterests.
func (d *Daemon) adjustOutstanding(f face.ID, delta int64) {
	if fc, ok := d.Faces.Find(f); ok {
		fc.Meters().OutstandingInterest.Add(delta)
	}
}

// adjustPending is table.PIT's AdjustPending callback: it keeps each
// face's pending-interest counter equal to the number of PENDING
// downstream items targeting it across the whole PIT.
func (d *Daemon) adjustPending(f face.ID, delta int64) {
	if fc, ok := d.Faces.Find(f); ok {
		fc.Meters().PendingInterest.Add(delta)
	}
}

// armTimer schedules a bare TIMER callout against entry after delay.
func (d *Daemon) armTimer(entry *table.InterestEntry, delayMicros int64) {
	d.Sched.Schedule(delayMicros, func(flags sched.Flags, evdata any, evint int) int64 {
		if flags == sched.FlagsCancel {
			return 0
		}
		d.Strat.Notify(entry, strategy.OpTimer, 0)
		return 0
	}, entry, 0)
}

// deferSend schedules forwardInterest(entry, f) to run after delay,
// implementing the default strategy's staggered "older"/bag sends.
func (d *Daemon) deferSend(entry *table.InterestEntry, f face.ID, delayMicros int64) {
	d.Sched.Schedule(delayMicros, func(flags sched.Flags, evdata any, evint int) int64 {
		if flags == sched.FlagsCancel {
			return 0
		}
		d.forwardInterest(entry, f)
		return 0
	}, entry, 0)
}
