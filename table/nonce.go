package table

import (
	"github.com/cespare/xxhash/v2"
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/sched"
)

// nonceEntry remembers one (nonce) observation long enough to catch a
// duplicate delivery of the same Interest.
type nonceEntry struct {
	expires sched.Tick
	seenOn  map[face.ID]bool
}

// NonceTable deduplicates Interest nonces within their lifetime window,
// hashed with xxhash for O(1) average lookup the way the FIB/PIT/CS
// tables all hash their keys.
type NonceTable struct {
	entries map[uint64]*nonceEntry
}

// NewNonceTable builds an empty nonce table.
func NewNonceTable() *NonceTable {
	return &NonceTable{entries: make(map[uint64]*nonceEntry)}
}

func nonceHash(nonce []byte) uint64 {
	return xxhash.Sum64(nonce)
}

// Seen reports whether nonce has already been observed (on any face) and
// not yet expired; if not, it records the observation against onFace and
// returns false.
func (t *NonceTable) Seen(nonce []byte, onFace face.ID, now, expires sched.Tick) bool {
	h := nonceHash(nonce)
	e, ok := t.entries[h]
	if ok && !e.expires.Before(now) {
		e.seenOn[onFace] = true
		return true
	}
	t.entries[h] = &nonceEntry{expires: expires, seenOn: map[face.ID]bool{onFace: true}}
	return false
}

// SeenOnFace reports whether nonce was specifically seen arriving on
// onFace before (used to suppress a PIT in-record refresh that would
// otherwise look like a fresh retransmission from the same neighbor).
func (t *NonceTable) SeenOnFace(nonce []byte, onFace face.ID) bool {
	e, ok := t.entries[nonceHash(nonce)]
	if !ok {
		return false
	}
	return e.seenOn[onFace]
}

// Sweep drops every entry that expired at or before now, returning the
// count removed.
func (t *NonceTable) Sweep(now sched.Tick) int {
	removed := 0
	for h, e := range t.entries {
		if !e.expires.After(now) {
			delete(t.entries, h)
			removed++
		}
	}
	return removed
}

// Len reports the number of distinct nonces currently tracked.
func (t *NonceTable) Len() int { return len(t.entries) }
