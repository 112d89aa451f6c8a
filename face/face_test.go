package face

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaceFlagsAccessors(t *testing.T) {
	f := NewFace(NewID(0, 1), NewNullTransport(), FlagUndecided)
	assert.True(t, f.Flags().Has(FlagUndecided))

	f.AddFlags(FlagGG)
	assert.True(t, f.Flags().Has(FlagGG))

	f.ClearFlags(FlagUndecided)
	assert.False(t, f.Flags().Has(FlagUndecided))

	f.SetFlags(FlagADJ)
	assert.Equal(t, FlagADJ, f.Flags())
}

func TestFaceGUID(t *testing.T) {
	f := NewFace(NewID(0, 1), NewNullTransport(), 0)
	assert.Nil(t, f.GUID())

	f.SetGUID([]byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2, 3}, f.GUID())
}

func TestFaceSendTargetDefaultsToSelf(t *testing.T) {
	f := NewFace(NewID(0, 1), NewNullTransport(), 0)
	assert.Same(t, f, f.SendTarget())

	parent := NewFace(NewID(0, 2), NewNullTransport(), 0)
	f.SetSendTarget(parent)
	assert.Same(t, parent, f.SendTarget())
}

func TestFaceDeferredOutputDrains(t *testing.T) {
	f := NewFace(NewID(0, 1), NewNullTransport(), 0)
	assert.False(t, f.HasDeferred())

	f.DeferOutput([]byte("a"))
	f.DeferOutput([]byte("b"))
	assert.True(t, f.HasDeferred())

	f.DrainDeferred()
	assert.False(t, f.HasDeferred())
}

func TestFaceQueueIsLazilyCreatedAndCached(t *testing.T) {
	f := NewFace(NewID(0, 1), NewNullTransport(), 0)
	q1 := f.Queue(DelayNormal, 1024, 0, 0)
	q2 := f.Queue(DelayNormal, 1024, 0, 0)
	assert.Same(t, q1, q2)
}
