package wire

import (
	"testing"
	"time"

	"github.com/ccnxgo/ccnd/std/types/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterestRoundTrip(t *testing.T) {
	in := &Interest{
		Name:                NameFromStr("/a/b/c"),
		MinSuffixComponents: optional.Some(1),
		MaxSuffixComponents: optional.Some(3),
		Exclude:             NewBoundedExclude(NewComponent("lo"), NewComponent("hi")),
		Scope:                optional.Some(1),
		InterestLifetime:    2 * time.Second,
		Nonce:               []byte{1, 2, 3, 4},
	}

	out, err := DecodeInterest(EncodeInterest(in))
	require.NoError(t, err)
	assert.True(t, out.Name.Equal(in.Name))
	assert.Equal(t, in.Nonce, out.Nonce)
	assert.Equal(t, in.InterestLifetime, out.InterestLifetime)

	gotMin, ok := out.MinSuffixComponents.Get()
	assert.True(t, ok)
	assert.Equal(t, 1, gotMin)

	lo, hi, ok := out.Exclude.BoundedAny()
	assert.True(t, ok)
	assert.True(t, lo.Equal(NewComponent("lo")))
	assert.True(t, hi.Equal(NewComponent("hi")))
}

func TestContentRoundTrip(t *testing.T) {
	c := &ContentObject{
		Name: NameFromStr("/a/b"),
		SignedInfo: SignedInfo{
			Type:             ContentTypeKey,
			FreshnessSeconds: optional.Some(30),
		},
		Payload:   []byte("hello"),
		Signature: []byte{0xde, 0xad},
	}

	out, err := DecodeContent(EncodeContent(c))
	require.NoError(t, err)
	assert.True(t, out.Name.Equal(c.Name))
	assert.Equal(t, ContentTypeKey, out.SignedInfo.Type)
	assert.Equal(t, c.Payload, out.Payload)
	assert.Equal(t, c.Signature, out.Signature)

	fresh, ok := out.SignedInfo.FreshnessSeconds.Get()
	assert.True(t, ok)
	assert.Equal(t, 30, fresh)
}

func TestEncodeDecodeMessageInterest(t *testing.T) {
	msg := IncomingMessage{Interest: &Interest{Name: NameFromStr("/x")}}
	frame, err := Encode(msg)
	require.NoError(t, err)

	n, ok := FrameLen(frame)
	require.True(t, ok)
	assert.Equal(t, len(frame), n)

	decoded, rest, err := Decode(frame)
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.NotNil(t, decoded.Interest)
	assert.True(t, decoded.Interest.Name.Equal(msg.Interest.Name))
}

func TestFrameLenFalseOnTruncatedInput(t *testing.T) {
	msg := IncomingMessage{Interest: &Interest{Name: NameFromStr("/x/y/z")}}
	frame, err := Encode(msg)
	require.NoError(t, err)

	_, ok := FrameLen(frame[:len(frame)-1])
	assert.False(t, ok)
}
