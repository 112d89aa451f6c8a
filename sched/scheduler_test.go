package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleFiresInOrder(t *testing.T) {
	s := NewScheduler()
	start := s.WallNow()

	var fired []string
	s.Schedule(10_000, func(f Flags, evdata any, evint int) int64 {
		fired = append(fired, "a")
		return 0
	}, nil, 0)
	s.Schedule(5_000, func(f Flags, evdata any, evint int) int64 {
		fired = append(fired, "b")
		return 0
	}, nil, 0)

	next := s.RunDue(start.Add(20 * time.Millisecond))
	assert.Equal(t, []string{"b", "a"}, fired)
	assert.Equal(t, int64(-1), next)
	assert.Equal(t, 0, s.Len())
}

func TestScheduleRearmsOnPositiveReturn(t *testing.T) {
	s := NewScheduler()
	start := s.WallNow()

	count := 0
	s.Schedule(1_000, func(f Flags, evdata any, evint int) int64 {
		count++
		if count < 3 {
			return 1_000
		}
		return 0
	}, nil, 0)

	for i := 0; i < 3; i++ {
		s.RunDue(start.Add(time.Duration(i+1) * 2 * time.Millisecond))
	}
	assert.Equal(t, 3, count)
	assert.Equal(t, 0, s.Len())
}

func TestCancelSuppressesFutureFiringAndNotifiesAction(t *testing.T) {
	s := NewScheduler()

	var cancelled bool
	ev := s.Schedule(10_000, func(f Flags, evdata any, evint int) int64 {
		if f == FlagsCancel {
			cancelled = true
		}
		return 0
	}, nil, 0)

	s.Cancel(ev)
	assert.True(t, cancelled)
	assert.Equal(t, 0, s.Len())

	// Cancelling again is a safe no-op.
	s.Cancel(ev)
}

func TestRunDueReturnsNextDelayWhenEventsRemain(t *testing.T) {
	s := NewScheduler()
	s.Schedule(50_000, func(f Flags, evdata any, evint int) int64 { return 0 }, nil, 0)

	next := s.RunDue(s.WallNow())
	assert.Greater(t, next, int64(0))
	assert.Equal(t, 1, s.Len())
}
