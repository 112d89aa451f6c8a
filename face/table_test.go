package face

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRegisterAndFind(t *testing.T) {
	tbl := NewTable()
	f := tbl.Register(NewNullTransport(), FlagUndecided, 5)
	require.NotNil(t, f)
	assert.Equal(t, 1, tbl.Len())

	found, ok := tbl.Find(f.ID())
	assert.True(t, ok)
	assert.Same(t, f, found)

	byFd, ok := tbl.FindByFd(5)
	assert.True(t, ok)
	assert.Same(t, f, byFd)
}

func TestTableDestroyRecyclesUndecidedSlot(t *testing.T) {
	tbl := NewTable()
	f := tbl.Register(NewNullTransport(), FlagUndecided, -1)
	id := f.ID()

	tbl.Destroy(id)
	assert.Equal(t, 0, tbl.Len())
	_, ok := tbl.Find(id)
	assert.False(t, ok)

	again := tbl.Register(NewNullTransport(), FlagUndecided, -1)
	assert.Equal(t, id.Slot(), again.ID().Slot())
}

func TestTableDestroyRetiresGraduatedSlot(t *testing.T) {
	tbl := NewTable()
	f := tbl.Register(NewNullTransport(), FlagGG, -1)
	id := f.ID()

	tbl.Destroy(id)
	next := tbl.Register(NewNullTransport(), FlagGG, -1)
	assert.NotEqual(t, id.Slot(), next.ID().Slot())
}

func TestTableFindOrCreateDatagramChild(t *testing.T) {
	tbl := NewTable()
	parent := tbl.Register(NewNullTransport(), FlagDatagram, -1)

	child, created := tbl.FindOrCreateDatagramChild(parent, "1.2.3.4:5", FlagDatagram, func() Transport {
		return NewNullTransport()
	})
	require.True(t, created)
	assert.Equal(t, parent, child.SendTarget())

	again, created := tbl.FindOrCreateDatagramChild(parent, "1.2.3.4:5", FlagDatagram, func() Transport {
		t.Fatal("makeTransport should not be called for an existing child")
		return nil
	})
	assert.False(t, created)
	assert.Same(t, child, again)
}

func TestTableRange(t *testing.T) {
	tbl := NewTable()
	tbl.Register(NewNullTransport(), 0, -1)
	tbl.Register(NewNullTransport(), 0, -1)

	count := 0
	tbl.Range(func(*Face) { count++ })
	assert.Equal(t, 2, count)
}
