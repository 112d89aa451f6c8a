package table

import (
	"math/bits"

	"github.com/ccnxgo/ccnd/wire"
)

// skiplistMaxLevel bounds the tower height; 24 levels comfortably covers
// a content store with billions of entries at the classic p=0.25 growth
// rate.
const skiplistMaxLevel = 24

// skipNode is one tower in the Content Store's name-ordered skiplist.
type skipNode struct {
	name  wire.Name
	entry *ContentEntry
	next  []*skipNode
}

// skiplist is a hand-rolled name-ordered skiplist (the standard library
// has no sorted-map type suitable for component-wise Name ordering); it
// backs the Content Store's primary index.
type skiplist struct {
	head   *skipNode
	level  int
	rng    uint64 // xorshift state for level coin-flips; avoids math/rand's lock
	length int
}

func newSkiplist() *skiplist {
	return &skiplist{
		head:  &skipNode{next: make([]*skipNode, skiplistMaxLevel)},
		level: 1,
		rng:   0x9e3779b97f4a7c15,
	}
}

// randomLevel draws a tower height with P(level=k) = 2^-k, matching the
// classic skiplist growth rate without pulling in a PRNG dependency for
// what is an internal structural coin flip, not user-visible randomness.
func (s *skiplist) randomLevel() int {
	s.rng ^= s.rng << 13
	s.rng ^= s.rng >> 7
	s.rng ^= s.rng << 17
	// Count trailing ones in the low bits: geometric distribution for free.
	level := bits.TrailingZeros64(^s.rng) + 1
	if level > skiplistMaxLevel {
		level = skiplistMaxLevel
	}
	return level
}

// search walks down from the top level, returning the predecessor chain
// (update) whose [i]'th entry is the last node at level i strictly less
// than name.
func (s *skiplist) search(name wire.Name) (update [skiplistMaxLevel]*skipNode) {
	x := s.head
	for i := s.level - 1; i >= 0; i-- {
		for x.next[i] != nil && x.next[i].name.Compare(name) < 0 {
			x = x.next[i]
		}
		update[i] = x
	}
	return update
}

// Insert adds entry under name, replacing any existing node for the same
// name (the Content Store itself enforces name-collision/dup-receive
// rules before calling Insert; this layer is a plain ordered map).
func (s *skiplist) Insert(name wire.Name, entry *ContentEntry) *skipNode {
	update := s.search(name)
	if x := update[0].next[0]; x != nil && x.name.Compare(name) == 0 {
		x.entry = entry
		return x
	}

	lvl := s.randomLevel()
	if lvl > s.level {
		for i := s.level; i < lvl; i++ {
			update[i] = s.head
		}
		s.level = lvl
	}

	node := &skipNode{name: name, entry: entry, next: make([]*skipNode, lvl)}
	for i := 0; i < lvl; i++ {
		node.next[i] = update[i].next[i]
		update[i].next[i] = node
	}
	s.length++
	return node
}

// Find returns the node exactly matching name, if any.
func (s *skiplist) Find(name wire.Name) (*skipNode, bool) {
	update := s.search(name)
	x := update[0].next[0]
	if x != nil && x.name.Compare(name) == 0 {
		return x, true
	}
	return nil, false
}

// Remove deletes the node exactly matching name.
func (s *skiplist) Remove(name wire.Name) bool {
	update := s.search(name)
	x := update[0].next[0]
	if x == nil || x.name.Compare(name) != 0 {
		return false
	}
	for i := 0; i < s.level; i++ {
		if update[i].next[i] != x {
			continue
		}
		update[i].next[i] = x.next[i]
	}
	for s.level > 1 && s.head.next[s.level-1] == nil {
		s.level--
	}
	s.length--
	return true
}

// Ceiling returns the first node whose name is >= probe, the entry point
// for a forward skiplist walk during Interest matching.
func (s *skiplist) Ceiling(probe wire.Name) (*skipNode, bool) {
	update := s.search(probe)
	x := update[0].next[0]
	if x == nil {
		return nil, false
	}
	return x, true
}

// Len reports the number of entries in the skiplist.
func (s *skiplist) Len() int { return s.length }
