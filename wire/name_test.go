package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameFromStrDropsEmptySegments(t *testing.T) {
	n := NameFromStr("/a/b/c/")
	assert.Equal(t, 3, len(n))
	assert.Equal(t, "/a/b/c", n.String())
}

func TestNameIsPrefix(t *testing.T) {
	a := NameFromStr("/a/b")
	ab := NameFromStr("/a/b/c")
	assert.True(t, a.IsPrefix(ab))
	assert.False(t, ab.IsPrefix(a))
	assert.True(t, a.IsPrefix(a))
}

func TestNameEqualAndClone(t *testing.T) {
	a := NameFromStr("/a/b")
	clone := a.Clone()
	assert.True(t, a.Equal(clone))

	clone[0].Val[0] = 'z'
	assert.False(t, a.Equal(clone))
}

func TestNameCompareOrdersShorterPrefixFirst(t *testing.T) {
	a := NameFromStr("/a")
	ab := NameFromStr("/a/b")
	assert.Equal(t, -1, a.Compare(ab))
	assert.Equal(t, 1, ab.Compare(a))
	assert.Equal(t, 0, a.Compare(a.Clone()))
}

func TestNameAppendAndWithDigest(t *testing.T) {
	a := NameFromStr("/a")
	withB := a.Append(NewComponent("b"))
	assert.Equal(t, "/a/b", withB.String())
	assert.Equal(t, 1, len(a), "Append must not mutate the receiver")

	digested := a.WithDigest([]byte{0xab, 0xcd})
	assert.Equal(t, 2, len(digested))
	assert.Equal(t, TypeDigest, digested[1].Typ)
}
