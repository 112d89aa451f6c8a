package face

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagsSetClearHas(t *testing.T) {
	var f Flags
	f = f.Set(FlagGG | FlagDatagram)
	assert.True(t, f.Has(FlagGG))
	assert.True(t, f.Has(FlagGG|FlagDatagram))
	assert.False(t, f.Has(FlagADJ))

	f = f.Clear(FlagGG)
	assert.False(t, f.Has(FlagGG))
	assert.True(t, f.Has(FlagDatagram))
}
