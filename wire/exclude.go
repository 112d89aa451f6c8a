package wire

// ExcludeTerm is one element of an Exclude filter: either the wildcard
// "Any" marker or a bounding component.
type ExcludeTerm struct {
	Any  bool
	Comp Component
}

// Exclude is an ordered list of terms bounding which components may not
// match at the position the Interest's selectors designate, per
// ccnx Exclude semantics.
type Exclude []ExcludeTerm

// Matches reports whether component c is excluded by this filter. The
// filter is interpreted left to right: a bare component term excludes an
// exact match; an Any term excludes everything between its neighboring
// bound components (inclusive range when bounded on a side that is a
// component, unbounded at the ends of the slice).
func (e Exclude) Matches(c Component) bool {
	for i, t := range e {
		if !t.Any {
			if t.Comp.Equal(c) {
				return true
			}
			continue
		}
		var lo, hi *Component
		if i > 0 && !e[i-1].Any {
			lo = &e[i-1].Comp
		}
		if i+1 < len(e) && !e[i+1].Any {
			hi = &e[i+1].Comp
		}
		if lo != nil && c.Compare(*lo) <= 0 {
			continue
		}
		if hi != nil && c.Compare(*hi) >= 0 {
			continue
		}
		return true
	}
	return false
}

// HeadAnyBound reports whether the filter opens with an unbounded Any
// immediately followed by a bounding component — the
// "Exclude(<Any/><Component X/>...)" head fast-path the Content Store's
// matching uses to pick a tighter skiplist probe than the bare Name
// prefix.
func (e Exclude) HeadAnyBound() (x Component, ok bool) {
	if len(e) < 2 || !e[0].Any || e[1].Any {
		return Component{}, false
	}
	return e[1].Comp, true
}

// BoundedAny reports whether the filter is a single "Any" term bounded on
// both sides by components in [lo, hi), returning those bounds. This is
// the shape the adjacency protocol's GUID-range proposal uses: a 12-byte range whose low half is zero and high half carries the
// proposer's bytes.
func (e Exclude) BoundedAny() (lo, hi Component, ok bool) {
	if len(e) != 3 || e[0].Any || !e[1].Any || e[2].Any {
		return Component{}, Component{}, false
	}
	return e[0].Comp, e[2].Comp, true
}

// NewBoundedExclude builds the 3-term [component, Any, component] shape
// used by BoundedAny.
func NewBoundedExclude(lo, hi Component) Exclude {
	return Exclude{{Comp: lo}, {Any: true}, {Comp: hi}}
}
