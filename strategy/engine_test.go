package strategy

import (
	"testing"

	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/table"
	"github.com/ccnxgo/ccnd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCtx struct {
	notices []string
}

func (c *stubCtx) SendInterest(entry *table.InterestEntry, f face.ID)             {}
func (c *stubCtx) ArmTimer(entry *table.InterestEntry, delayMicros int64)         {}
func (c *stubCtx) DeferSend(entry *table.InterestEntry, f face.ID, delay int64)   {}
func (c *stubCtx) Upstreams(entry *table.InterestEntry) ([]face.ID, map[face.ID]bool) {
	return nil, nil
}
func (c *stubCtx) IsInactive(f face.ID) bool                      { return false }
func (c *stubCtx) OutstandingInterests(f face.ID) int64           { return 0 }
func (c *stubCtx) GetFaceAttr(f face.ID, name string) uint64      { return 0 }
func (c *stubCtx) SetFaceAttr(f face.ID, name string, v uint64)   {}
func (c *stubCtx) NonZeroFaceAttrs(f face.ID) map[string]uint64   { return nil }
func (c *stubCtx) Notice(line string)                             { c.notices = append(c.notices, line) }
func (c *stubCtx) RandomMicros(lo, hi int64) int64                { return lo }
func (c *stubCtx) RandomIndex(n int) int                          { return 0 }

func newFIB() *table.FIB {
	return table.NewFIB(func(face.ID) bool { return true })
}

func TestEngineResolveLazilyInstallsDefault(t *testing.T) {
	fib := newFIB()
	npe := fib.Intern(wire.NameFromStr("/root"))
	e := NewEngine(&stubCtx{})

	inst := e.resolve(npe)
	require.NotNil(t, inst)
	class, _, ok := CurrentClass(npe)
	assert.True(t, ok)
	assert.Equal(t, "default", class)

	// A second resolve on the same npe must reuse the installed instance.
	assert.Equal(t, inst, e.resolve(npe))
}

func TestEngineResolveInheritsFromAncestor(t *testing.T) {
	fib := newFIB()
	ctx := &stubCtx{}
	parent := fib.Intern(wire.NameFromStr("/a"))
	SetStrategy(ctx, parent, "null", "")

	child := fib.Intern(wire.NameFromStr("/a/b"))
	e := NewEngine(ctx)

	inst := e.resolve(child)
	_, isNull := inst.(*nullStrategy)
	assert.True(t, isNull)

	// The child itself must not have gotten its own explicit instance.
	_, _, ok := CurrentClass(child)
	assert.False(t, ok)
}

func TestSetStrategyFinalizesPrior(t *testing.T) {
	fib := newFIB()
	ctx := &stubCtx{}
	npe := fib.Intern(wire.NameFromStr("/a"))

	assert.True(t, SetStrategy(ctx, npe, "null", ""))
	assert.True(t, SetStrategy(ctx, npe, "default", ""))

	class, _, ok := CurrentClass(npe)
	assert.True(t, ok)
	assert.Equal(t, "default", class)
}

func TestRemoveStrategyFallsBackToInheritance(t *testing.T) {
	fib := newFIB()
	ctx := &stubCtx{}
	npe := fib.Intern(wire.NameFromStr("/a"))
	SetStrategy(ctx, npe, "null", "")

	RemoveStrategy(ctx, npe)
	_, _, ok := CurrentClass(npe)
	assert.False(t, ok)
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "FIRST", OpFirst.String())
	assert.Equal(t, "TIMEOUT", OpTimeout.String())
}
