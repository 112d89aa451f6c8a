package face

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDPacksSlotAndGeneration(t *testing.T) {
	id := NewID(7, 12345)
	assert.Equal(t, 12345, id.Slot())
	assert.Equal(t, uint32(7), id.Generation())
}

func TestIDSlotMasksOverflow(t *testing.T) {
	id := NewID(1, slotMask+5)
	assert.Equal(t, 5, id.Slot())
}
