package daemon

import "github.com/ccnxgo/ccnd/sched"

// reaperIntervalMicros paces the periodic housekeeping pass: aging out
// expired FIB forwarding entries and sweeping stale Content Store
// entries. Both tables also clean incrementally on
// their own hot paths; this pass only catches what idle traffic leaves
// behind.
const reaperIntervalMicros = 1_000_000

// scheduleReapers arms the recurring reaper event; it reschedules itself
// every tick by returning the same interval, the same self-rearming
// pattern table.PIT's onExpiry uses.
func (d *Daemon) scheduleReapers() {
	d.Sched.Schedule(reaperIntervalMicros, d.runReapers, nil, 0)
}

func (d *Daemon) runReapers(flags sched.Flags, evdata any, evint int) int64 {
	if flags == sched.FlagsCancel {
		return 0
	}
	now := d.Sched.Now()
	d.FIB.AgeOut(int64(now))
	d.CS.Clean(now)
	d.PIT.Nonces.Sweep(now)
	return reaperIntervalMicros
}
