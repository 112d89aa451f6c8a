package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExcludeMatchesExactTerm(t *testing.T) {
	e := Exclude{{Comp: NewComponent("x")}}
	assert.True(t, e.Matches(NewComponent("x")))
	assert.False(t, e.Matches(NewComponent("y")))
}

func TestExcludeMatchesBoundedAny(t *testing.T) {
	e := NewBoundedExclude(NewComponent("a"), NewComponent("z"))
	assert.False(t, e.Matches(NewComponent("a")))
	assert.True(t, e.Matches(NewComponent("m")))
	assert.False(t, e.Matches(NewComponent("z")))
}

func TestExcludeBoundedAnyRoundTrips(t *testing.T) {
	lo := NewComponent("lo")
	hi := NewComponent("hi")
	e := NewBoundedExclude(lo, hi)

	gotLo, gotHi, ok := e.BoundedAny()
	assert.True(t, ok)
	assert.True(t, gotLo.Equal(lo))
	assert.True(t, gotHi.Equal(hi))
}

func TestExcludeBoundedAnyRejectsOtherShapes(t *testing.T) {
	_, _, ok := Exclude{{Comp: NewComponent("a")}}.BoundedAny()
	assert.False(t, ok)

	_, _, ok = Exclude{{Any: true}, {Any: true}, {Comp: NewComponent("a")}}.BoundedAny()
	assert.False(t, ok)
}

func TestExcludeHeadAnyBound(t *testing.T) {
	e := Exclude{{Any: true}, {Comp: NewComponent("x")}}
	x, ok := e.HeadAnyBound()
	assert.True(t, ok)
	assert.True(t, x.Equal(NewComponent("x")))

	_, ok = Exclude{{Comp: NewComponent("x")}}.HeadAnyBound()
	assert.False(t, ok)
}
