package table

import (
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/sched"
	"github.com/ccnxgo/ccnd/wire"
)

// PitFaceItem tracks one face's participation in an InterestEntry: either
// a downstream (the Interest arrived from here and wants the answer) or
// an upstream (we forwarded the Interest out this face and are waiting).
type PitFaceItem struct {
	Face       face.ID
	Expiry     sched.Tick
	Nonce      []byte
	Pending    bool // downstream: waiting for an answer
	Suppressed bool // downstream: SUPDATA, do not deliver data back
	Upstream   bool
	UpHungry   bool // upstream: expired with no eligible downstream to retry for
	DCFace     bool // direct-control face: +60ms grace on first expiry exposure
	grantedDC  bool // whether the one-time DC grace has already been applied
}

// InterestEntry is one PIT entry: an Interest "shape" (name/selectors,
// modulo the Nonce) shared by every PitFaceItem attached to it.
type InterestEntry struct {
	Interest *wire.Interest
	Npe      *NameprefixEntry

	Items []*PitFaceItem

	expiryEvent *sched.Event
	strategy    StrategyNotifier
	npeNext     *InterestEntry // intrusive singly-linked list, see NameprefixEntry.pitHead
}

// NextAtNpe returns the next InterestEntry in Npe's intrusive PIT list, or
// nil at the end of the chain.
func (e *InterestEntry) NextAtNpe() *InterestEntry { return e.npeNext }

// StrategyNotifier is the narrow callback surface PIT processing needs
// from the strategy engine; table stays free of a direct import cycle on
// the strategy package by depending on this interface instead.
type StrategyNotifier interface {
	NotifyPIT(entry *InterestEntry, op int, f face.ID)
}

// PIT is the Pending Interest Table: entries hashed by the Interest's
// fingerprint (name+selectors, Nonce excluded), plus the attached Nonce
// Table for loop suppression.
type PIT struct {
	entries map[string]*InterestEntry
	Nonces  *NonceTable
	sched   *sched.Scheduler

	// SendUpstream retransmits entry's Interest out f; it is the PIT's
	// only way to put bytes on the wire, set once at daemon startup so
	// that `table` itself never needs to import `face`'s transports or
	// `wire`'s encoder. Called by the Expiry wheel before
	// notifying the strategy of the retry.
	SendUpstream func(e *InterestEntry, f face.ID)

	// AdjustPending credits (+1) or debits (-1) a face's pending-interest
	// counter on every PENDING downstream transition, wired the same way
	// SendUpstream is. The invariant: each face's counter equals the
	// number of PENDING PitFaceItems targeting it across all entries.
	AdjustPending func(f face.ID, delta int64)
}

func (p *PIT) notePending(f face.ID, delta int64) {
	if p.AdjustPending != nil {
		p.AdjustPending(f, delta)
	}
}

// NewPIT builds an empty PIT bound to a scheduler for expiry events.
func NewPIT(s *sched.Scheduler) *PIT {
	return &PIT{
		entries: make(map[string]*InterestEntry),
		Nonces:  NewNonceTable(),
		sched:   s,
	}
}

func fingerprintKey(in *wire.Interest) string {
	return string(in.FingerprintKey())
}

// Lookup finds an existing entry with the same fingerprint as in.
func (p *PIT) Lookup(in *wire.Interest) (*InterestEntry, bool) {
	e, ok := p.entries[fingerprintKey(in)]
	return e, ok
}

// ProcessOutcome reports what the arrival steps decided, so the
// caller (the forwarder's dispatch loop) knows what to do next: nothing
// further (a duplicate was absorbed), serve content immediately from the
// Content Store, or forward a freshly created entry upstream.
type ProcessOutcome int

const (
	OutcomeDuplicate ProcessOutcome = iota
	OutcomeServedFromStore
	OutcomeNewEntry
)

// Scope1Dropped reports whether a scope-<=1 Interest without the GG flag
// on F must be silently dropped.
func Scope1Dropped(scope int, fFlags face.Flags) bool {
	return scope <= 1 && !fFlags.Has(face.FlagGG)
}

// FindOrCreateItem returns F's PitFaceItem on entry, creating a
// downstream item if none exists yet.
func (e *InterestEntry) FindOrCreateItem(f face.ID) *PitFaceItem {
	for _, it := range e.Items {
		if it.Face == f {
			return it
		}
	}
	it := &PitFaceItem{Face: f}
	e.Items = append(e.Items, it)
	return it
}

// Downstreams returns every pending downstream item.
func (e *InterestEntry) Downstreams() []*PitFaceItem {
	var out []*PitFaceItem
	for _, it := range e.Items {
		if !it.Upstream && it.Pending {
			out = append(out, it)
		}
	}
	return out
}

// Upstreams returns every outstanding upstream item.
func (e *InterestEntry) Upstreams() []*PitFaceItem {
	var out []*PitFaceItem
	for _, it := range e.Items {
		if it.Upstream {
			out = append(out, it)
		}
	}
	return out
}

// RemoveItem drops F's item from the entry, returning true if it was
// present.
func (e *InterestEntry) RemoveItem(f face.ID) bool {
	for i, it := range e.Items {
		if it.Face == f {
			e.Items = append(e.Items[:i], e.Items[i+1:]...)
			return true
		}
	}
	return false
}

// OnExistingEntry handles an Interest that
// matched an already-live PIT entry: a genuine duplicate. nonceDup
// reports whether the nonce collided with a sibling item already on this
// entry (triggering SUPDATA); now/expiry come from the caller's
// scheduler tick and the Interest's clamped lifetime.
func (p *PIT) OnExistingEntry(e *InterestEntry, f face.ID, nonce []byte, now, expiry sched.Tick) (item *PitFaceItem, nonceDup bool) {
	item = e.FindOrCreateItem(f)

	nonceDup = p.Nonces.Seen(nonce, f, now, expiry)
	if nonceDup {
		item.Suppressed = true
		return item, true
	}

	if !item.Pending && !item.Upstream {
		p.notePending(f, 1)
	}
	item.Nonce = nonce
	item.Pending = true
	item.Suppressed = false
	item.Expiry = expiry
	p.rearmExpiry(e)
	return item, false
}

// NewEntry allocates a fresh
// InterestEntry linked to the deepest-matching NameprefixEntry, with F
// recorded as the first pending downstream. The Interest's nonce is
// registered immediately so a looped-back copy arriving on any face is
// caught as a duplicate.
func (p *PIT) NewEntry(in *wire.Interest, f face.ID, npe *NameprefixEntry, now, expiry sched.Tick, strategy StrategyNotifier) *InterestEntry {
	e := &InterestEntry{Interest: in, Npe: npe, strategy: strategy}
	item := &PitFaceItem{Face: f, Nonce: in.Nonce, Pending: true, Expiry: expiry}
	e.Items = append(e.Items, item)
	p.notePending(f, 1)
	if len(in.Nonce) > 0 {
		p.Nonces.Seen(in.Nonce, f, now, expiry)
	}

	key := fingerprintKey(in)
	p.entries[key] = e
	if npe != nil {
		e.npeNext = npe.pitHead
		npe.pitHead = e
	}
	p.rearmExpiry(e)
	return e
}

// unlinkFromNpe removes e from its NameprefixEntry's intrusive PIT list.
func unlinkFromNpe(e *InterestEntry) {
	npe := e.Npe
	if npe == nil {
		return
	}
	if npe.pitHead == e {
		npe.pitHead = e.npeNext
		e.npeNext = nil
		return
	}
	for p := npe.pitHead; p != nil; p = p.npeNext {
		if p.npeNext == e {
			p.npeNext = e.npeNext
			e.npeNext = nil
			return
		}
	}
}

// AddUpstream records that the Interest was forwarded out f, expecting a
// response by expiry.
func (e *InterestEntry) AddUpstream(f face.ID, expiry sched.Tick, dcFace bool) *PitFaceItem {
	it := &PitFaceItem{Face: f, Upstream: true, Expiry: expiry, DCFace: dcFace}
	e.Items = append(e.Items, it)
	return it
}

// Satisfy marks every pending downstream as served and clears the entry
// out of the PIT; it does not itself send data, that's the caller's job
// (enqueue on F's outbound queue).
func (p *PIT) Satisfy(e *InterestEntry) {
	p.cancelExpiry(e)
	for _, it := range e.Items {
		if !it.Upstream && it.Pending {
			it.Pending = false
			p.notePending(it.Face, -1)
		}
	}
	delete(p.entries, fingerprintKey(e.Interest))
	unlinkFromNpe(e)
}

// rearmExpiry (re)schedules the entry's single expiry event at the
// nearest of all its items' expiries.
func (p *PIT) rearmExpiry(e *InterestEntry) {
	p.cancelExpiry(e)
	if len(e.Items) == 0 {
		return
	}
	nearest := e.Items[0].Expiry
	for _, it := range e.Items[1:] {
		if it.Expiry.Before(nearest) {
			nearest = it.Expiry
		}
	}
	delayTicks := nearest.Sub(p.sched.Now())
	if delayTicks < 0 {
		delayTicks = 0
	}
	delayMicros := delayTicks * sched.MicrosPerTick
	e.expiryEvent = p.sched.Schedule(delayMicros, p.onExpiry, e, 0)
}

func (p *PIT) cancelExpiry(e *InterestEntry) {
	if e.expiryEvent != nil {
		p.sched.Cancel(e.expiryEvent)
		e.expiryEvent = nil
	}
}

// dcGraceTicks is the +60ms first-exposure grace the Expiry wheel gives
// DCFACE upstreams.
const dcGraceMicros = 60_000

// onExpiry runs the Expiry wheel's fire-time logic. It
// always returns 0 (never reschedule itself) because rearmExpiry
// explicitly schedules the next firing against the nearest remaining
// item's expiry.
func (p *PIT) onExpiry(flags sched.Flags, evdata any, evint int) int64 {
	if flags == sched.FlagsCancel {
		return 0
	}
	e := evdata.(*InterestEntry)
	now := p.sched.Now()

	var liveDownstreams []*PitFaceItem
	var liveUpstreams []*PitFaceItem
	var kept []*PitFaceItem

	for _, it := range e.Items {
		if !it.Upstream {
			if it.Pending && it.Expiry.After(now) {
				liveDownstreams = append(liveDownstreams, it)
				kept = append(kept, it)
			} else if it.Pending {
				it.Pending = false
				p.notePending(it.Face, -1)
			}
			continue
		}

		if it.DCFace && !it.grantedDC && !it.Expiry.After(now) {
			it.grantedDC = true
			it.Expiry = it.Expiry.Add(dcGraceMicros / sched.MicrosPerTick)
		}

		if it.Expiry.After(now) {
			liveUpstreams = append(liveUpstreams, it)
			kept = append(kept, it)
			continue
		}

		// Expired upstream: retry if an eligible (longest-lived) downstream
		// exists, else mark UPHUNGRY and keep it around for bookkeeping.
		if len(liveDownstreams) > 0 {
			longest := liveDownstreams[0]
			for _, d := range liveDownstreams[1:] {
				if d.Expiry.After(longest.Expiry) {
					longest = d
				}
			}
			if p.SendUpstream != nil {
				p.SendUpstream(e, it.Face)
			}
			if e.strategy != nil {
				e.strategy.NotifyPIT(e, opRetryUpstream, it.Face)
			}
			it.Expiry = longest.Expiry
			it.UpHungry = false
		} else {
			it.UpHungry = true
		}
		liveUpstreams = append(liveUpstreams, it)
		kept = append(kept, it)
	}

	e.Items = kept

	if len(liveDownstreams) == 0 && allHungryOrGone(liveUpstreams) {
		if e.strategy != nil {
			e.strategy.NotifyPIT(e, opTimeout, 0)
		}
		delete(p.entries, fingerprintKey(e.Interest))
		unlinkFromNpe(e)
		e.expiryEvent = nil
		return 0
	}

	p.rearmExpiry(e)
	return 0
}

func allHungryOrGone(ups []*PitFaceItem) bool {
	for _, it := range ups {
		if !it.UpHungry {
			return false
		}
	}
	return true
}

// opRetryUpstream/opTimeout are the subset of strategy.Op values the PIT
// needs to reference without importing the strategy package (which
// itself depends on table); the daemon wires the real enum values in at
// startup via SetOpCodes.
var (
	opRetryUpstream int
	opTimeout       int
)

// SetOpCodes lets the strategy package publish its real Op enum values
// for PIT expiry-wheel callouts, avoiding an import cycle between table
// and strategy.
func SetOpCodes(retryUpstream, timeout int) {
	opRetryUpstream = retryUpstream
	opTimeout = timeout
}

// Len reports the number of live PIT entries.
func (p *PIT) Len() int { return len(p.entries) }
