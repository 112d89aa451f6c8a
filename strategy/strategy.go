// Package strategy implements the per-prefix forwarding strategies: a
// fixed callout signature dispatched over a pluggable registry of
// classes (default, parallel, loadsharing, null, trace, faceattr)
// populated from each file's init(), collapsed into table's narrower
// PIT-expiry callback plus a richer per-operation Ctx the daemon
// package supplies.
package strategy

import (
	"fmt"
	"sync"

	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/table"
)

// Op enumerates the strategy callout operations, preserving the exact
// ordering and names of ccnd's CCND_STRATEGY_* enum.
type Op int

const (
	OpInit Op = iota
	OpFirst
	OpUpdate
	OpNewUp
	OpNewDn
	OpExpUp
	OpExpDn
	OpRefresh
	OpTimer
	OpSatisfied
	OpTimeout
	OpFinalize
)

func (o Op) String() string {
	switch o {
	case OpInit:
		return "INIT"
	case OpFirst:
		return "FIRST"
	case OpUpdate:
		return "UPDATE"
	case OpNewUp:
		return "NEWUP"
	case OpNewDn:
		return "NEWDN"
	case OpExpUp:
		return "EXPUP"
	case OpExpDn:
		return "EXPDN"
	case OpRefresh:
		return "REFRESH"
	case OpTimer:
		return "TIMER"
	case OpSatisfied:
		return "SATISFIED"
	case OpTimeout:
		return "TIMEOUT"
	case OpFinalize:
		return "FINALIZE"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Ctx is the narrow, safe accessor surface a strategy callout gets:
// send_interest, timer arming, FIB lookup and the
// per-prefix state cell, without handing the strategy the whole daemon.
type Ctx interface {
	// SendInterest (re)transmits entry's Interest out f, recording an
	// AddUpstream PitFaceItem if one doesn't already exist.
	SendInterest(entry *table.InterestEntry, f face.ID)
	// ArmTimer schedules a TIMER callout against entry after delay
	// microseconds.
	ArmTimer(entry *table.InterestEntry, delayMicros int64)
	// DeferSend schedules SendInterest(entry, f) to run after delayMicros,
	// used for the "older"/randomized-bag upstreams default strategy
	// sends on a staggered schedule rather than immediately.
	DeferSend(entry *table.InterestEntry, f face.ID, delayMicros int64)
	// Upstreams returns the FIB-derived nexthop set for entry's prefix,
	// in priority order, with the TAP subset reported separately.
	Upstreams(entry *table.InterestEntry) (forwardTo []face.ID, tap map[face.ID]bool)
	// IsInactive reports whether f is idle enough to deprioritize
	// (loadsharing's depth penalty).
	IsInactive(f face.ID) bool
	// OutstandingInterests reports f's outstanding upstream count.
	OutstandingInterests(f face.ID) int64
	// GetFaceAttr/SetFaceAttr read and write a named per-face attribute
	// cell (faceattr strategy, loadsharing's "slow" bit).
	GetFaceAttr(f face.ID, name string) uint64
	SetFaceAttr(f face.ID, name string, v uint64)
	// NonZeroFaceAttrs reports f's non-zero attributes, for faceattr's
	// diagnostic dump mode.
	NonZeroFaceAttrs(f face.ID) map[string]uint64
	// Notice emits a line to the notice.txt stream (trace strategy).
	Notice(line string)
	// RandomMicros returns a uniform random delay in [lo, hi).
	RandomMicros(lo, hi int64) int64
	// RandomIndex returns a uniform random index in [0, n) for
	// tie-breaking among n equally-good candidates.
	RandomIndex(n int) int
}

// Instance is one per-prefix strategy object: Init configures it from a
// parameter string (set-strategy's argument), OnEvent receives every
// callout for PIT entries rooted at its prefix.
type Instance interface {
	Init(params string) error
	OnEvent(ctx Ctx, op Op, entry *table.InterestEntry, f face.ID)
}

// Factory constructs a fresh, unconfigured Instance for a strategy
// class.
type Factory func() Instance

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// registerClass adds a strategy class to the registry; called from each
// built-in strategy's init().
func registerClass(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New instantiates and initializes the named strategy class with params,
// reporting false if the class id is unknown.
func New(class, params string) (Instance, bool) {
	registryMu.Lock()
	f, ok := registry[class]
	registryMu.Unlock()
	if !ok {
		return nil, false
	}
	inst := f()
	if err := inst.Init(params); err != nil {
		return nil, false
	}
	return inst, true
}

// Classes lists every registered strategy class id, for getstrategy's
// diagnostic listing.
func Classes() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}
