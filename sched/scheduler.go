// Package sched implements the forwarder's wrapped-time scheduler: a
// min-heap of timed events over a 32-bit tick counter
// advancing at a fixed nominal rate, plus a monotonic wall clock for
// freshness accounting. All timeouts, retries, strategy wake-ups, reaper
// passes, and content-queue pacers in the daemon are scheduled events.
package sched

import "time"

// Flags tells an Action why it is being invoked.
type Flags int

const (
	// FlagsNone is a normal, on-time firing.
	FlagsNone Flags = 0
	// FlagsCancel means the event is being cancelled; the action must
	// release its evdata and must not reschedule (its return value is
	// ignored).
	FlagsCancel Flags = 1
)

// Action is invoked when an event fires or is cancelled. A non-negative
// return value reschedules the same event that many microseconds later;
// zero (the common case) frees it. The return value is ignored on
// cancellation.
type Action func(flags Flags, evdata any, evint int) (nextDelayMicros int64)

// Event is the handle returned by Schedule, usable with Cancel.
type Event struct {
	action  Action
	evdata  any
	evint   int
	due     Tick
	cancel  bool
	heapRef *item[*Event, Tick]
}

// Scheduler is the single event loop's min-heap of deferred work. It is
// not safe for concurrent use from more than one goroutine: all
// state-touching work happens on the daemon's single logical thread.
type Scheduler struct {
	heap minHeap[*Event, Tick]
	now  Tick
	wall time.Time
	// sliver accumulates sub-tick microseconds across calls so that
	// fractional ticks are never silently dropped.
	sliver int64
}

// NewScheduler creates a scheduler whose wall clock starts at the current
// time and whose tick counter starts at zero.
func NewScheduler() *Scheduler {
	return &Scheduler{
		heap: newMinHeap[*Event](Tick.Before),
		wall: time.Now(),
	}
}

// Now returns the current wrapped tick.
func (s *Scheduler) Now() Tick { return s.now }

// WallNow returns the scheduler's cached monotonic wall-clock time,
// refreshed once per advance so expiry comparisons within one pass all
// see the same instant.
func (s *Scheduler) WallNow() time.Time { return s.wall }

// Schedule arms an event to fire after delayMicros, storing evdata/evint
// for the action to interpret; a delay <= 0 fires on the next Run.
func (s *Scheduler) Schedule(delayMicros int64, action Action, evdata any, evint int) *Event {
	if delayMicros < 0 {
		delayMicros = 0
	}
	due := s.now.Add(delayMicros / MicrosPerTick)
	ev := &Event{action: action, evdata: evdata, evint: evint, due: due}
	ev.heapRef = s.heap.Push(ev, due)
	return ev
}

// Cancel removes ev from the heap (if still pending) and invokes its
// action once with FlagsCancel so it can release evdata. Safe to call on
// an already-fired or already-cancelled event (a no-op).
func (s *Scheduler) Cancel(ev *Event) {
	if ev == nil || ev.cancel {
		return
	}
	ev.cancel = true
	s.heap.Remove(ev.heapRef)
	ev.action(FlagsCancel, ev.evdata, ev.evint)
}

// advanceTicks converts an elapsed wall-clock duration into a tick delta,
// clamping to [1, a generous ceiling] so a clock stall or backward jump
// never causes a huge skip nor lets time appear to run backwards.
func advanceTicks(elapsed time.Duration) int64 {
	us := elapsed.Microseconds()
	if us <= 0 {
		return 1
	}
	ticks := us / MicrosPerTick
	const ceiling = int64(TickRate) * (1 << 30) / TickRate
	if ticks < 1 {
		return 1
	}
	if ticks > ceiling {
		return ceiling
	}
	return ticks
}

// Advance moves the scheduler's wall clock and tick counter forward to
// `now`, carrying any sub-tick remainder in the sliver. It must be called
// once per main-loop iteration before firing due events.
func (s *Scheduler) Advance(now time.Time) {
	elapsed := now.Sub(s.wall)
	s.wall = now
	us := elapsed.Microseconds() + s.sliver
	if us < 0 {
		us = 0
	}
	ticks := advanceTicks(time.Duration(us) * time.Microsecond)
	s.sliver = us - ticks*MicrosPerTick
	s.now = s.now.Add(ticks)
}

// RunDue fires every event whose due tick is not after the current tick,
// advancing the wall/tick clocks first via Advance. It returns the number
// of microseconds until the next pending event fires, or -1 if the queue
// is empty, the bound the main loop sleeps for.
func (s *Scheduler) RunDue(now time.Time) (nextDelayMicros int64) {
	s.Advance(now)

	for s.heap.Len() > 0 && !s.heap.PeekPriority().After(s.now) {
		ev := s.heap.Pop()
		if ev.cancel {
			continue
		}
		next := ev.action(FlagsNone, ev.evdata, ev.evint)
		if next > 0 {
			ev.due = s.now.Add(next / MicrosPerTick)
			ev.heapRef = s.heap.Push(ev, ev.due)
		}
	}

	if s.heap.Len() == 0 {
		return -1
	}
	delta := s.heap.PeekPriority().Sub(s.now)
	if delta < 0 {
		delta = 0
	}
	return delta * MicrosPerTick
}

// Len reports the number of pending (not yet fired or cancelled) events,
// for tests and stats.
func (s *Scheduler) Len() int { return s.heap.Len() }
