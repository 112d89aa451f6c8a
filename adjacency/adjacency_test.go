package adjacency

import (
	"testing"

	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduled struct {
	delay int64
	fn    func(cancelled bool)
}

type fakeCtx struct {
	nextByte       byte
	scheduled      []scheduled
	sent           []*wire.Interest
	sentFaces      []face.ID
	registered     []wire.Name
	unregistered   []wire.Name
	adjSet         map[face.ID][]byte
	adjCleared     []face.ID
	notices        []string
}

func newFakeCtx() *fakeCtx {
	return &fakeCtx{adjSet: make(map[face.ID][]byte)}
}

func (c *fakeCtx) RandomBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		c.nextByte++
		b[i] = c.nextByte
	}
	return b
}

func (c *fakeCtx) Schedule(delayMicros int64, fn func(cancelled bool)) {
	c.scheduled = append(c.scheduled, scheduled{delay: delayMicros, fn: fn})
}

func (c *fakeCtx) SendInterest(f face.ID, in *wire.Interest) {
	c.sent = append(c.sent, in)
	c.sentFaces = append(c.sentFaces, f)
}

func (c *fakeCtx) Sign(body []byte) []byte { return []byte("sig") }

func (c *fakeCtx) RegisterRoute(name wire.Name, f face.ID) {
	c.registered = append(c.registered, name)
}

func (c *fakeCtx) UnregisterRoute(name wire.Name, f face.ID) {
	c.unregistered = append(c.unregistered, name)
}

func (c *fakeCtx) SetFaceADJ(f face.ID, guid []byte) { c.adjSet[f] = guid }

func (c *fakeCtx) ClearFaceADJ(f face.ID) { c.adjCleared = append(c.adjCleared, f) }

func (c *fakeCtx) Notice(line string) { c.notices = append(c.notices, line) }

func TestEligible(t *testing.T) {
	assert.True(t, Eligible(face.FlagDatagram))
	assert.False(t, Eligible(face.FlagPassive))
	assert.False(t, Eligible(face.FlagGG))
	assert.False(t, Eligible(face.FlagMulticast))
	assert.True(t, Eligible(face.FlagPermanent|face.FlagUndecided), "PERMANENT alone does not disqualify a face from solicitation")
}

func TestOnFaceCreatedSchedulesSolicitForEligibleFace(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)

	n.OnFaceCreated(face.ID(1), face.FlagDatagram)
	require.Len(t, ctx.scheduled, 1)

	ctx.scheduled[0].fn(false)
	require.Len(t, ctx.sent, 1)
	assert.True(t, ctx.sent[0].Name.Equal(Root))

	s, ok := n.State(face.ID(1))
	require.True(t, ok)
	assert.True(t, s.Bits.Has(SolSent))
}

func TestOnFaceCreatedSkipsIneligibleFace(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)

	n.OnFaceCreated(face.ID(1), face.FlagGG)
	assert.Empty(t, ctx.scheduled)
}

func TestOnFaceCreatedSolicitCancelledDoesNothing(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)

	n.OnFaceCreated(face.ID(1), face.FlagDatagram)
	ctx.scheduled[0].fn(true)
	assert.Empty(t, ctx.sent)
}

func TestOnIncomingInterestAnswersSolicitWithOffer(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)

	peerHigh := []byte{9, 9, 9, 9, 9, 9}
	lo := wire.NewComponent(string(make([]byte, guidLen)))
	hi := wire.NewComponent(string(append(make([]byte, halfLen), peerHigh...)))
	in := &wire.Interest{Name: Root, Exclude: wire.NewBoundedExclude(lo, hi)}

	obj, consumed := n.OnIncomingInterest(in, face.ID(2))
	require.True(t, consumed)
	require.NotNil(t, obj)
	assert.True(t, Root.IsPrefix(obj.Name))
	assert.Equal(t, wire.ContentTypeKey, obj.SignedInfo.Type)
	require.Len(t, obj.Payload, guidLen)
	assert.Equal(t, peerHigh, obj.Payload[halfLen:])

	s, ok := n.State(face.ID(2))
	require.True(t, ok)
	assert.True(t, s.Bits.Has(SolRecv))
	assert.True(t, s.Bits.Has(OfrSent))
}

func TestOnIncomingInterestIgnoresUnrelatedName(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)

	in := &wire.Interest{Name: wire.NameFromStr("/not/adjacency")}
	_, consumed := n.OnIncomingInterest(in, face.ID(2))
	assert.False(t, consumed)
}

func TestMutualSolicitTiebreakPrefersGreaterProposal(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)

	n.Solicit(face.ID(3))
	s, _ := n.State(face.ID(3))
	ourHigh := s.Our6

	// A peer whose proposed bytes are lexicographically smaller than ours
	// loses the tiebreak and must be told nothing (we'll send the Offer).
	smaller := append([]byte(nil), ourHigh...)
	smaller[0] = 0
	lo := wire.NewComponent(string(make([]byte, guidLen)))
	hi := wire.NewComponent(string(append(make([]byte, halfLen), smaller...)))
	obj := n.handleSolicit(face.ID(3), lo, hi)
	require.NotNil(t, obj)

	st, _ := n.State(face.ID(3))
	assert.True(t, st.Bits.Has(OfrSent))
}

func TestMutualSolicitTiebreakDefersToGreaterPeer(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)

	n.Solicit(face.ID(3))
	s, _ := n.State(face.ID(3))
	ourHigh := s.Our6

	larger := append([]byte(nil), ourHigh...)
	larger[0] = 0xff
	lo := wire.NewComponent(string(make([]byte, guidLen)))
	hi := wire.NewComponent(string(append(make([]byte, halfLen), larger...)))
	obj := n.handleSolicit(face.ID(3), lo, hi)
	assert.Nil(t, obj)

	st, _ := n.State(face.ID(3))
	assert.False(t, st.Bits.Has(OfrSent))
	assert.Nil(t, st.Our6)
}

func TestOnOfferReplyTriggersCommitOnceBothSidesOffered(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)
	f := face.ID(4)

	n.Solicit(f)
	s := n.state(f)
	s.Bits |= OfrSent // pretend we already answered the peer's own solicit
	s.GUID = nil

	guid := make([]byte, guidLen)
	for i := range guid {
		guid[i] = byte(i + 1)
	}
	obj := &wire.ContentObject{Name: Root.Append(wire.NewComponent(string(guid))), Payload: guid}

	consumed := n.OnOfferReply(f, obj)
	require.True(t, consumed)

	st, _ := n.State(f)
	assert.True(t, st.Bits.Has(OfrRecv))
	assert.True(t, st.Bits.Has(CrqSent))
	assert.Equal(t, guid, st.GUID)

	require.Len(t, ctx.sent, 2) // solicit, then commit-request
	last := ctx.sent[len(ctx.sent)-1].Name
	assert.Equal(t, "commit", last[len(last)-1].String())
}

func TestOnOfferReplyIgnoredWithoutOutstandingSolicit(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)
	f := face.ID(5)

	obj := &wire.ContentObject{Name: Root.Append(wire.NewComponent("x"))}
	consumed := n.OnOfferReply(f, obj)
	assert.True(t, consumed)

	_, ok := n.State(f)
	assert.True(t, ok) // state record created, but nothing committed
	st, _ := n.State(f)
	assert.False(t, st.Bits.Has(CrqSent))
}

func TestOnCommitRequestAndReplyReachActive(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)
	f := face.ID(6)

	guid := make([]byte, guidLen)
	for i := range guid {
		guid[i] = byte(i + 10)
	}
	s := n.state(f)
	s.GUID = guid
	s.Bits |= CrqSent // as if our own commit-request already went out

	commitName := Root.Append(wire.NewComponent(string(guid)), wire.NewComponent("commit"))
	reqObj, handled := n.OnCommitRequest(&wire.Interest{Name: commitName}, f)
	require.True(t, handled)
	require.NotNil(t, reqObj)
	assert.Equal(t, wire.ContentTypeData, reqObj.SignedInfo.Type)

	st, _ := n.State(f)
	assert.True(t, st.Bits.Has(CrqRecv))
	assert.True(t, st.Bits.Has(DatSent))
	assert.False(t, st.Bits.Has(Active)) // DAT_RECV still missing

	replyObj := &wire.ContentObject{Name: commitName, Payload: guid}
	consumed := n.OnCommitReply(f, replyObj)
	assert.True(t, consumed)

	st, _ = n.State(f)
	assert.True(t, st.Bits.Has(Active))
	assert.Equal(t, guid, ctx.adjSet[f])
	require.Len(t, ctx.registered, 1)
	assert.True(t, ctx.registered[0].Equal(Root.Append(wire.NewComponent(string(guid)))))
}

func TestOnCommitRequestRejectsWrongShape(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)

	_, handled := n.OnCommitRequest(&wire.Interest{Name: wire.NameFromStr("/something/else")}, face.ID(7))
	assert.False(t, handled)
}

func TestRefreshTimeoutEntersTimedWaitThenResets(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)
	f := face.ID(8)

	guid := make([]byte, guidLen)
	s := n.state(f)
	s.GUID = guid
	s.Bits = Active

	n.refreshTimedOut(f)
	st, _ := n.State(f)
	assert.True(t, st.Bits.Has(Active)) // first failure just counts, doesn't drop yet

	n.refreshTimedOut(f)
	assert.Empty(t, ctx.unregistered) // enterTimedWait happens on the 2nd failure below
	st, ok := n.State(f)
	require.True(t, ok)
	assert.Equal(t, TimedWait, st.Bits)
	assert.Len(t, ctx.unregistered, 1)
	assert.Contains(t, ctx.adjCleared, f)

	require.NotEmpty(t, ctx.scheduled)
	resetFn := ctx.scheduled[len(ctx.scheduled)-1]
	sentBefore := len(ctx.sent)
	resetFn.fn(false)

	_, ok = n.State(f)
	require.True(t, ok) // reset() deletes then Solicit() recreates
	assert.Greater(t, len(ctx.sent), sentBefore)
}

func TestOnFaceDestroyedClearsState(t *testing.T) {
	ctx := newFakeCtx()
	n := New(ctx)
	f := face.ID(9)

	n.Solicit(f)
	_, ok := n.State(f)
	require.True(t, ok)

	n.OnFaceDestroyed(f)
	_, ok = n.State(f)
	assert.False(t, ok)
}
