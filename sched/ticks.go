package sched

// Tick is the 32-bit wrapped clock domain time is compared in.
// Comparisons use signed-delta interpretation so that time may wrap
// every 2^32 ticks without ever appearing to run backwards within any
// window <= 2^31-1 ticks.
type Tick uint32

// TickRate is the nominal scheduler frequency in Hz, chosen so that
// 1_000_000/TickRate is integral.
const TickRate = 500

// MicrosPerTick is the tick period in microseconds.
const MicrosPerTick = 1_000_000 / TickRate

// Before reports whether a is chronologically before b in the wrapped
// domain, using signed-delta comparison: (a - b) as a signed 32-bit value
// being negative means a < b.
func (a Tick) Before(b Tick) bool {
	return int32(a-b) < 0
}

// After reports whether a is chronologically after b.
func (a Tick) After(b Tick) bool {
	return int32(a-b) > 0
}

// Add returns a tick offset by n ticks (n may be negative).
func (a Tick) Add(n int64) Tick {
	return Tick(int64(a) + n)
}

// Sub returns the signed number of ticks between a and b (a - b),
// interpreted over a window of at most 2^31-1 ticks; this is the only
// arithmetic exposed, never raw unsigned subtraction.
func (a Tick) Sub(b Tick) int64 {
	return int64(int32(a - b))
}
