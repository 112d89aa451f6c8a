package table

import (
	"testing"

	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/sched"
	"github.com/ccnxgo/ccnd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStrategy struct {
	calls []int
}

func (s *countingStrategy) NotifyPIT(entry *InterestEntry, op int, f face.ID) {
	s.calls = append(s.calls, op)
}

func TestPITNewEntryAndLookup(t *testing.T) {
	s := sched.NewScheduler()
	p := NewPIT(s)
	in := &wire.Interest{Name: wire.NameFromStr("/a/b"), Nonce: []byte{1, 2, 3, 4}}

	e := p.NewEntry(in, face.ID(1), nil, s.Now(), s.Now().Add(1000), &countingStrategy{})
	require.NotNil(t, e)
	assert.Equal(t, 1, p.Len())

	found, ok := p.Lookup(in)
	assert.True(t, ok)
	assert.Same(t, e, found)
}

func TestPITOnExistingEntryDetectsNonceLoop(t *testing.T) {
	s := sched.NewScheduler()
	p := NewPIT(s)
	in := &wire.Interest{Name: wire.NameFromStr("/a/b"), Nonce: []byte{1, 2, 3, 4}}
	e := p.NewEntry(in, face.ID(1), nil, s.Now(), s.Now().Add(1000), &countingStrategy{})

	// The Interest's own nonce was registered at entry-creation time, so a
	// looped-back copy from any face is an immediate duplicate.
	_, nonceDup := p.OnExistingEntry(e, face.ID(2), in.Nonce, s.Now(), s.Now().Add(1000))
	assert.True(t, nonceDup)

	// A fresh nonce on the same entry is a legitimate retransmission.
	_, nonceDup = p.OnExistingEntry(e, face.ID(3), []byte{5, 6, 7, 8}, s.Now(), s.Now().Add(1000))
	assert.False(t, nonceDup)
}

func TestPITSatisfyRemovesEntry(t *testing.T) {
	s := sched.NewScheduler()
	p := NewPIT(s)
	in := &wire.Interest{Name: wire.NameFromStr("/a/b"), Nonce: []byte{1, 2, 3, 4}}
	e := p.NewEntry(in, face.ID(1), nil, s.Now(), s.Now().Add(1000), &countingStrategy{})

	p.Satisfy(e)
	assert.Equal(t, 0, p.Len())
	_, ok := p.Lookup(in)
	assert.False(t, ok)
}

func TestPITUpstreamRetriesOnExpiry(t *testing.T) {
	SetOpCodes(7, 8)
	s := sched.NewScheduler()
	p := NewPIT(s)
	strat := &countingStrategy{}

	var retried []face.ID
	p.SendUpstream = func(e *InterestEntry, f face.ID) { retried = append(retried, f) }

	in := &wire.Interest{Name: wire.NameFromStr("/a/b"), Nonce: []byte{1, 2, 3, 4}}
	// A still-live downstream (far future expiry) gives the expired upstream
	// below someone to retry for.
	e := p.NewEntry(in, face.ID(1), nil, s.Now(), s.Now().Add(100_000), strat)
	e.AddUpstream(face.ID(99), s.Now(), false) // already expired relative to "now"

	// Drive the Expiry wheel directly rather than through wall-clock
	// advance, since AddUpstream does not itself rearm the PIT's timer.
	p.onExpiry(sched.FlagsNone, e, 0)

	assert.Contains(t, retried, face.ID(99))
	assert.Contains(t, strat.calls, 7)
}

func TestScope1Dropped(t *testing.T) {
	assert.True(t, Scope1Dropped(1, face.Flags(0)))
	assert.False(t, Scope1Dropped(1, face.FlagGG))
	assert.False(t, Scope1Dropped(2, face.Flags(0)))
}

func TestPITPendingCounterTracksDownstreams(t *testing.T) {
	s := sched.NewScheduler()
	p := NewPIT(s)

	pending := map[face.ID]int64{}
	p.AdjustPending = func(f face.ID, delta int64) { pending[f] += delta }

	in := &wire.Interest{Name: wire.NameFromStr("/a/b"), Nonce: []byte{1, 2, 3, 4}}
	e := p.NewEntry(in, face.ID(1), nil, s.Now(), s.Now().Add(1000), &countingStrategy{})
	assert.EqualValues(t, 1, pending[face.ID(1)])

	// A second downstream with a fresh nonce credits its own face once,
	// and a renewal from the same face does not double-count.
	p.OnExistingEntry(e, face.ID(2), []byte{5, 6, 7, 8}, s.Now(), s.Now().Add(1000))
	p.OnExistingEntry(e, face.ID(2), []byte{9, 10, 11, 12}, s.Now(), s.Now().Add(2000))
	assert.EqualValues(t, 1, pending[face.ID(2)])

	// Satisfaction returns every face's counter to zero.
	p.Satisfy(e)
	assert.EqualValues(t, 0, pending[face.ID(1)])
	assert.EqualValues(t, 0, pending[face.ID(2)])
}
