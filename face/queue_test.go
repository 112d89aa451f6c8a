package face

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentQueueEnqueueDequeueOrder(t *testing.T) {
	q := NewContentQueue(DelayNormal, 1024, 0, 0)
	q.Enqueue(1, []byte("first"))
	q.Enqueue(2, []byte("second"))
	assert.Equal(t, 2, q.Len())

	got, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, []byte("first"), got)
	assert.Equal(t, 1, q.Len())

	got, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got)

	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestContentQueuePacingDelayScalesWithSize(t *testing.T) {
	q := NewContentQueue(DelayASAP, 1024, 0, 0)
	small := q.PacingDelay(512)
	large := q.PacingDelay(2048)
	assert.Greater(t, large, small)
}
