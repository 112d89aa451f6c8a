package face

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterAttrIsIdempotent(t *testing.T) {
	a := RegisterAttr("some-unique-attr-name")
	b := RegisterAttr("some-unique-attr-name")
	assert.Equal(t, a, b)
	assert.Equal(t, "some-unique-attr-name", AttrName(a))
}

func TestAttrCellsBitAndCell(t *testing.T) {
	var c attrCells
	bit := AttrIndex(3)
	c.SetBit(bit, true)
	assert.True(t, c.GetBit(bit))
	assert.Equal(t, uint64(1), c.GetCell(bit))

	c.SetBit(bit, false)
	assert.False(t, c.GetBit(bit))

	wide := AttrIndex(maxBitAttrs + 2)
	c.SetCell(wide, 42)
	assert.Equal(t, uint64(42), c.GetCell(wide))
	assert.True(t, c.GetBit(wide))

	nz := c.NonZero()
	assert.Equal(t, uint64(42), nz[wide])
	assert.NotContains(t, nz, bit)
}
