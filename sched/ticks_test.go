package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickBeforeAfterAcrossWrap(t *testing.T) {
	var a Tick = 0xFFFFFFF0
	var b Tick = 0x00000010

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, b.Before(a))
}

func TestTickAddAndSub(t *testing.T) {
	var a Tick = 100
	b := a.Add(50)
	assert.Equal(t, Tick(150), b)
	assert.Equal(t, int64(50), b.Sub(a))

	c := a.Add(-50)
	assert.Equal(t, Tick(50), c)
	assert.Equal(t, int64(-50), c.Sub(a))
}

func TestTickSubAcrossWrap(t *testing.T) {
	var a Tick = 5
	var b Tick = 0xFFFFFFFE
	assert.Equal(t, int64(7), a.Sub(b))
}
