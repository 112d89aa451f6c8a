// Package table holds the daemon's three lookup structures — the
// Forwarding Information Base, the Pending Interest Table (with its
// attached Nonce Table), and the Content Store — all keyed off the same
// component-trie node type.
package table

import (
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/wire"
)

// ForwardFlags mirrors ccnd's CCN_FORW_* bitmask exactly, down to the
// inverted sense of CAPTURE_OK in update_forward_to.
type ForwardFlags uint32

const (
	ForwardActive       ForwardFlags = 1 << 0
	ForwardChildInherit ForwardFlags = 1 << 1
	ForwardAdvertise    ForwardFlags = 1 << 2
	ForwardLast         ForwardFlags = 1 << 3
	ForwardCapture      ForwardFlags = 1 << 4
	ForwardLocal        ForwardFlags = 1 << 5
	ForwardTap          ForwardFlags = 1 << 6
	ForwardCaptureOK    ForwardFlags = 1 << 7

	// pubMask is the subset of flags an external registration (prefixreg)
	// may set directly; REFRESHED is ccnd-private bookkeeping.
	pubMask      ForwardFlags = ForwardAdvertise | ForwardCapture | ForwardLocal | ForwardTap | ForwardCaptureOK | ForwardLast | ForwardChildInherit | ForwardActive
	ForwardRefreshed ForwardFlags = 1 << 16
)

// Forwarding is one registered (face, flags) pair attached directly to a
// NameprefixEntry — a single hop in ccnd's forwarding list for that exact
// prefix, before ancestor inheritance is folded in.
type Forwarding struct {
	Face   face.ID
	Flags  ForwardFlags
	Expiry int64 // scheduler tick, 0 = no expiry (permanent registration)
}

// NameprefixEntry is one node of the component trie: it owns the
// directly registered Forwarding entries for its exact prefix, and
// caches the fully inherited forward-to set once computed.
type NameprefixEntry struct {
	component wire.Component
	parent    *NameprefixEntry
	children  map[string]*NameprefixEntry

	forwarding []*Forwarding
	flags      ForwardFlags // OR of every contributing Forwarding's flags

	forwardTo []face.ID // computed nexthop set, in priority order
	tap       []face.ID // subset of forwardTo also flagged CCN_FORW_TAP
	fgen      uint64    // generation forwardTo/tap were computed at

	pitHead *InterestEntry // intrusive list of PIT entries rooted here

	// strategyInst/strategyParam hold the per-prefix strategy instance
	//; typed `any` to avoid an
	// import cycle with the strategy package, which imports table. A nil
	// strategyInst means "inherit from parent", resolved by the strategy
	// engine walking NameprefixEntry.Parent() chains.
	strategyInst  any
	strategyParam string
}

// Parent returns the ancestor NameprefixEntry one component shorter, or
// nil at the root — used by the strategy engine to walk up the chain
// when a prefix has no explicitly set strategy instance.
func (npe *NameprefixEntry) Parent() *NameprefixEntry { return npe.parent }

// Strategy returns the explicitly-set per-prefix strategy instance, or
// nil if none was ever set here (inherit from parent).
func (npe *NameprefixEntry) Strategy() any { return npe.strategyInst }

// SetStrategy records the per-prefix strategy instance and its
// parameter string, created on explicit set-strategy.
func (npe *NameprefixEntry) SetStrategy(inst any, param string) {
	npe.strategyInst = inst
	npe.strategyParam = param
}

// StrategyParam returns the parameter string the current strategy
// instance was configured with.
func (npe *NameprefixEntry) StrategyParam() string { return npe.strategyParam }

// Name reconstructs the full prefix name by walking to the root.
func (npe *NameprefixEntry) Name() wire.Name {
	var comps wire.Name
	for p := npe; p != nil && p.parent != nil; p = p.parent {
		comps = append(wire.Name{p.component}, comps...)
	}
	return comps
}

// Forwarding returns the directly registered forwarding entries (not the
// inherited forward-to set).
func (npe *NameprefixEntry) Forwarding() []*Forwarding { return npe.forwarding }

// PITHead returns the head of the intrusive singly-linked list of PIT
// entries rooted exactly at npe.
func (npe *NameprefixEntry) PITHead() *InterestEntry { return npe.pitHead }

// FIB is the forwarding information base: a component trie of
// NameprefixEntry nodes plus the global generation counter ccnd bumps
// whenever any registration anywhere changes, invalidating every cached
// forwardTo set lazily.
type FIB struct {
	root *NameprefixEntry
	gen  uint64

	faceAlive func(face.ID) bool
}

// NewFIB builds an empty FIB. faceAlive is consulted during
// UpdateForwardTo to skip entries whose face has since been destroyed,
// matching ccnd's face_from_faceid(h, f->faceid) == NULL guard.
func NewFIB(faceAlive func(face.ID) bool) *FIB {
	return &FIB{
		root:      &NameprefixEntry{children: make(map[string]*NameprefixEntry)},
		faceAlive: faceAlive,
	}
}

// Lookup returns the existing NameprefixEntry for name, or nil if no
// node (registered or not) currently exists for the full name.
func (fib *FIB) Lookup(name wire.Name) *NameprefixEntry {
	npe := fib.root
	for _, c := range name {
		next, ok := npe.children[componentKey(c)]
		if !ok {
			return nil
		}
		npe = next
	}
	return npe
}

// LookupDeepest returns the longest-prefix NameprefixEntry that exists
// on the path to name, which may be a strict ancestor of name itself —
// the starting point for the Interest forwarding lookup.
func (fib *FIB) LookupDeepest(name wire.Name) *NameprefixEntry {
	npe := fib.root
	for _, c := range name {
		next, ok := npe.children[componentKey(c)]
		if !ok {
			break
		}
		npe = next
	}
	return npe
}

// Intern returns the NameprefixEntry for name, creating any missing
// trie nodes along the way.
func (fib *FIB) Intern(name wire.Name) *NameprefixEntry {
	npe := fib.root
	for _, c := range name {
		next, ok := npe.children[componentKey(c)]
		if !ok {
			next = &NameprefixEntry{component: c, parent: npe, children: make(map[string]*NameprefixEntry)}
			npe.children[componentKey(c)] = next
		}
		npe = next
	}
	return npe
}

// Register adds or refreshes a forwarding entry for (name, faceid),
// bumping the FIB generation so every cached forwardTo set recomputes
// lazily on next use.
func (fib *FIB) Register(name wire.Name, f face.ID, flags ForwardFlags, expiry int64) *Forwarding {
	npe := fib.Intern(name)
	flags &= pubMask

	for _, existing := range npe.forwarding {
		if existing.Face == f {
			existing.Flags = flags
			existing.Expiry = expiry
			fib.gen++
			return existing
		}
	}

	entry := &Forwarding{Face: f, Flags: flags, Expiry: expiry}
	npe.forwarding = append(npe.forwarding, entry)
	fib.gen++
	return entry
}

// Unregister removes the forwarding entry for (name, faceid), if any.
func (fib *FIB) Unregister(name wire.Name, f face.ID) bool {
	npe := fib.Lookup(name)
	if npe == nil {
		return false
	}
	for i, existing := range npe.forwarding {
		if existing.Face == f {
			npe.forwarding = append(npe.forwarding[:i], npe.forwarding[i+1:]...)
			fib.gen++
			return true
		}
	}
	return false
}

// UnregisterFace removes every forwarding entry across the whole FIB
// that names the given face, used when a face is destroyed.
func (fib *FIB) UnregisterFace(f face.ID) {
	var walk func(*NameprefixEntry)
	walk = func(npe *NameprefixEntry) {
		for i := 0; i < len(npe.forwarding); {
			if npe.forwarding[i].Face == f {
				npe.forwarding = append(npe.forwarding[:i], npe.forwarding[i+1:]...)
				continue
			}
			i++
		}
		for _, child := range npe.children {
			walk(child)
		}
	}
	walk(fib.root)
	fib.gen++
}

// UpdateForwardTo recomputes npe.forwardTo and npe.flags from the
// forwarding lists of npe and every ancestor, translating
// update_forward_to, following ccnd's inheritance rules:
//
//   - wantflags starts at ACTIVE; each ancestor level ORs in
//     CHILD_INHERIT for the *next* (shallower) level once any entry at
//     this level sets CAPTURE (inverted into CAPTURE_OK, hence the XOR).
//   - An entry is added to forwardTo only if, after inverting the sense
//     of CAPTURE_OK, it has every currently-wanted flag set.
//   - CCN_FORW_TAP entries are also collected into a side list.
//   - CCN_FORW_LAST moves its face to the end of the resulting list.
func (fib *FIB) UpdateForwardTo(npe *NameprefixEntry) {
	var forwardTo []face.ID
	var tap []face.ID
	var lastFace face.ID
	hasLast := false

	wantFlags := ForwardActive
	var namespaceFlags ForwardFlags

	seen := make(map[face.ID]bool)
	for p := npe; p != nil; p = p.parent {
		moreFlags := ForwardChildInherit
		for _, f := range p.forwarding {
			if fib.faceAlive != nil && !fib.faceAlive(f.Face) {
				continue
			}
			tflags := f.Flags ^ ForwardCaptureOK
			if tflags&wantFlags == wantFlags {
				if !seen[f.Face] {
					forwardTo = append(forwardTo, f.Face)
					seen[f.Face] = true
				}
				if f.Flags&ForwardTap != 0 {
					tap = append(tap, f.Face)
				}
				if f.Flags&ForwardLast != 0 {
					lastFace = f.Face
					hasLast = true
				}
			}
			namespaceFlags |= f.Flags
			if f.Flags&ForwardCapture != 0 {
				moreFlags |= ForwardCaptureOK
			}
		}
		wantFlags |= moreFlags
		if p.parent == nil {
			break
		}
	}

	if hasLast {
		forwardTo = moveToEnd(forwardTo, lastFace)
	}

	npe.forwardTo = forwardTo
	npe.tap = tap
	npe.flags = namespaceFlags
	npe.fgen = fib.gen
}

func moveToEnd(ids []face.ID, target face.ID) []face.ID {
	idx := -1
	for i, id := range ids {
		if id == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ids
	}
	out := make([]face.ID, 0, len(ids))
	out = append(out, ids[:idx]...)
	out = append(out, ids[idx+1:]...)
	out = append(out, target)
	return out
}

// ForwardTo returns the inherited nexthop set for npe, recomputing it
// first if the FIB's generation has advanced since the last computation.
func (fib *FIB) ForwardTo(npe *NameprefixEntry) []face.ID {
	if npe.fgen != fib.gen {
		fib.UpdateForwardTo(npe)
	}
	return npe.forwardTo
}

// Tap returns the TAP-flagged subset of npe's inherited nexthop set.
func (fib *FIB) Tap(npe *NameprefixEntry) []face.ID {
	if npe.fgen != fib.gen {
		fib.UpdateForwardTo(npe)
	}
	return npe.tap
}

// IsLocal reports whether any contributing registration set
// CCN_FORW_LOCAL on this namespace.
func (fib *FIB) IsLocal(npe *NameprefixEntry) bool {
	if npe.fgen != fib.gen {
		fib.UpdateForwardTo(npe)
	}
	return npe.flags&ForwardLocal != 0
}

// AgeOut drops forwarding entries past their Expiry tick, called from
// the scheduler every 5 seconds. It bumps the
// generation if anything was actually removed.
func (fib *FIB) AgeOut(now int64) {
	changed := false
	var walk func(*NameprefixEntry)
	walk = func(npe *NameprefixEntry) {
		for i := 0; i < len(npe.forwarding); {
			f := npe.forwarding[i]
			if f.Expiry != 0 && f.Expiry <= now {
				npe.forwarding = append(npe.forwarding[:i], npe.forwarding[i+1:]...)
				changed = true
				continue
			}
			i++
		}
		for _, child := range npe.children {
			walk(child)
		}
	}
	walk(fib.root)
	if changed {
		fib.gen++
	}
}

// componentKey builds a map key that distinguishes components by type as
// well as value, so a digest component can never collide with a generic
// component carrying the same bytes.
func componentKey(c wire.Component) string {
	return string(c.Typ) + string(c.Val)
}
