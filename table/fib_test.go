package table

import (
	"testing"

	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysAlive(face.ID) bool { return true }

func TestFIBInternAndLookup(t *testing.T) {
	fib := NewFIB(alwaysAlive)
	name := wire.NameFromStr("/a/b/c")

	npe := fib.Intern(name)
	require.NotNil(t, npe)
	assert.True(t, npe.Name().Equal(name))

	assert.Same(t, npe, fib.Lookup(name))
	assert.Nil(t, fib.Lookup(wire.NameFromStr("/a/b/c/d")))

	deepest := fib.LookupDeepest(wire.NameFromStr("/a/b/c/d/e"))
	assert.Same(t, npe, deepest)
}

func TestFIBRegisterInheritsToDescendant(t *testing.T) {
	fib := NewFIB(alwaysAlive)
	fib.Register(wire.NameFromStr("/a"), face.ID(1), ForwardActive, 0)

	npe := fib.Intern(wire.NameFromStr("/a/b/c"))
	forwardTo := fib.ForwardTo(npe)
	assert.Equal(t, []face.ID{1}, forwardTo)
}

func TestFIBCaptureStopsInheritance(t *testing.T) {
	fib := NewFIB(alwaysAlive)
	fib.Register(wire.NameFromStr("/a"), face.ID(1), ForwardActive, 0)
	fib.Register(wire.NameFromStr("/a/b"), face.ID(2), ForwardActive|ForwardCapture, 0)

	npe := fib.Intern(wire.NameFromStr("/a/b/c"))
	forwardTo := fib.ForwardTo(npe)
	assert.Equal(t, []face.ID{2}, forwardTo)
}

func TestFIBLastFlagOrdersAfterCapture(t *testing.T) {
	fib := NewFIB(alwaysAlive)
	name := wire.NameFromStr("/a")
	fib.Register(name, face.ID(1), ForwardActive|ForwardLast, 0)
	fib.Register(name, face.ID(2), ForwardActive|ForwardCapture, 0)
	fib.Register(name, face.ID(3), ForwardActive, 0)

	npe := fib.Intern(name)
	forwardTo := fib.ForwardTo(npe)
	require.Len(t, forwardTo, 3)
	assert.Equal(t, face.ID(1), forwardTo[len(forwardTo)-1], "LAST-flagged face must sort after every other contributing forwarding")
}

func TestFIBUnregisterAndUnregisterFace(t *testing.T) {
	fib := NewFIB(alwaysAlive)
	name := wire.NameFromStr("/a")
	fib.Register(name, face.ID(1), ForwardActive, 0)
	fib.Register(name, face.ID(2), ForwardActive, 0)

	assert.True(t, fib.Unregister(name, face.ID(1)))
	assert.False(t, fib.Unregister(name, face.ID(1)))

	npe := fib.Intern(name)
	assert.Equal(t, []face.ID{2}, fib.ForwardTo(npe))

	fib.UnregisterFace(face.ID(2))
	assert.Empty(t, fib.ForwardTo(npe))
}

func TestFIBAgeOutRemovesExpiredEntries(t *testing.T) {
	fib := NewFIB(alwaysAlive)
	name := wire.NameFromStr("/a")
	fib.Register(name, face.ID(1), ForwardActive, 100)
	fib.Register(name, face.ID(2), ForwardActive, 0)

	fib.AgeOut(50)
	npe := fib.Intern(name)
	assert.ElementsMatch(t, []face.ID{1, 2}, fib.ForwardTo(npe))

	fib.AgeOut(150)
	assert.Equal(t, []face.ID{2}, fib.ForwardTo(npe))
}

func TestFIBSkipsDeadFaces(t *testing.T) {
	dead := map[face.ID]bool{2: true}
	fib := NewFIB(func(id face.ID) bool { return !dead[id] })
	name := wire.NameFromStr("/a")
	fib.Register(name, face.ID(1), ForwardActive, 0)
	fib.Register(name, face.ID(2), ForwardActive, 0)

	npe := fib.Intern(name)
	assert.Equal(t, []face.ID{1}, fib.ForwardTo(npe))
}
