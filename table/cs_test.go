package table

import (
	"testing"

	"github.com/ccnxgo/ccnd/sched"
	"github.com/ccnxgo/ccnd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysAcceptable(*ContentEntry) bool { return true }

func TestContentStoreInsertAndMatch(t *testing.T) {
	cs := NewContentStore(100)
	obj := &wire.ContentObject{Name: wire.NameFromStr("/a/b"), Payload: []byte("hi")}
	raw := []byte("raw-bytes")

	entry, outcome := cs.Insert(obj, raw, 0, false, false)
	require.Equal(t, InsertNew, outcome)
	assert.Equal(t, 1, cs.Len())

	in := &wire.Interest{Name: wire.NameFromStr("/a/b")}
	found, ok := cs.Match(in, 0, alwaysAcceptable)
	assert.True(t, ok)
	assert.Same(t, entry, found)
}

func TestContentStoreInsertDuplicateIsIdempotent(t *testing.T) {
	cs := NewContentStore(100)
	obj := &wire.ContentObject{Name: wire.NameFromStr("/a/b")}
	raw := []byte("same-bytes")

	_, outcome := cs.Insert(obj, raw, 0, false, false)
	require.Equal(t, InsertNew, outcome)

	_, outcome = cs.Insert(obj, raw, 0, false, false)
	assert.Equal(t, InsertDuplicate, outcome)
	assert.Equal(t, 1, cs.Len())
}

func TestContentStoreInsertCollisionDiscardsBoth(t *testing.T) {
	cs := NewContentStore(100)
	obj := &wire.ContentObject{Name: wire.NameFromStr("/a/b")}

	_, outcome := cs.Insert(obj, []byte("first"), 0, false, false)
	require.Equal(t, InsertNew, outcome)

	_, outcome = cs.Insert(obj, []byte("second"), 0, false, false)
	assert.Equal(t, InsertCollision, outcome)
	assert.Equal(t, 0, cs.Len())
}

func TestContentStoreMatchSkipsStaleUnlessAOKStale(t *testing.T) {
	cs := NewContentStore(100)
	obj := &wire.ContentObject{Name: wire.NameFromStr("/a/b")}
	entry, _ := cs.Insert(obj, []byte("raw"), sched.Tick(0), false, false)
	cs.MarkStale(entry)

	in := &wire.Interest{Name: wire.NameFromStr("/a/b")}
	_, ok := cs.Match(in, 0, alwaysAcceptable)
	assert.False(t, ok)

	in.AnswerOriginKind = wire.AOKStale
	_, ok = cs.Match(in, 0, alwaysAcceptable)
	assert.True(t, ok)
}

func TestContentStoreCleanFlushesUnsolicited(t *testing.T) {
	cs := NewContentStore(100)
	obj := &wire.ContentObject{Name: wire.NameFromStr("/a/b")}
	cs.Insert(obj, []byte("raw"), 0, true, true)
	assert.Equal(t, 1, cs.Len())

	evicted := cs.Clean(0)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 0, cs.Len())
}

func TestContentStoreOverCapacityMarksOldestStale(t *testing.T) {
	cs := NewContentStore(2)
	for i := 0; i < 4; i++ {
		name := wire.NameFromStr("/a").Append(wire.NewComponent(string(rune('a' + i))))
		cs.Insert(&wire.ContentObject{Name: name}, []byte{byte(i)}, 0, false, false)
	}
	assert.Equal(t, 4, cs.Len())

	cs.Clean(0) // first pass: no stale yet, marks oldest entries stale
	evicted := cs.Clean(0)
	assert.Greater(t, evicted, 0)
	assert.Less(t, cs.Len(), 4)
}
