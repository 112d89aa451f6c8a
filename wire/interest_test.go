package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClampedLifetimeDefaultsWhenUnset(t *testing.T) {
	in := &Interest{}
	assert.Equal(t, DefaultInterestLifetime, in.ClampedLifetime())
}

func TestClampedLifetimeRoundsUpToEighthSecond(t *testing.T) {
	in := &Interest{InterestLifetime: 1*time.Second + 10*time.Millisecond}
	assert.Equal(t, 1*time.Second+125*time.Millisecond, in.ClampedLifetime())
}

func TestClampedLifetimeClampsToBounds(t *testing.T) {
	tooShort := &Interest{InterestLifetime: time.Millisecond}
	assert.Equal(t, MinInterestLifetime, tooShort.ClampedLifetime())

	tooLong := &Interest{InterestLifetime: 365 * 24 * time.Hour}
	assert.Equal(t, MaxInterestLifetime, tooLong.ClampedLifetime())
}

func TestFingerprintKeyIgnoresNonce(t *testing.T) {
	a := &Interest{Name: NameFromStr("/a/b"), Nonce: []byte{1, 2, 3, 4}}
	b := &Interest{Name: NameFromStr("/a/b"), Nonce: []byte{5, 6, 7, 8}}
	assert.Equal(t, a.FingerprintKey(), b.FingerprintKey())

	c := &Interest{Name: NameFromStr("/a/c"), Nonce: a.Nonce}
	assert.NotEqual(t, a.FingerprintKey(), c.FingerprintKey())
}
