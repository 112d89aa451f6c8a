package daemon

import (
	"github.com/ccnxgo/ccnd/core"
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/table"
)

// faceAttrRegistry is shared across every strategyCtx since face
// attribute names (e.g. loadsharing's "slow", faceattr's arbitrary
// names) are global, matching face.RegisterAttr's own package-level
// registry.
var faceAttrRegistry = map[string]face.AttrIndex{}

func attrIndex(name string) face.AttrIndex {
	if idx, ok := faceAttrRegistry[name]; ok {
		return idx
	}
	idx := face.RegisterAttr(name)
	faceAttrRegistry[name] = idx
	return idx
}

// strategyCtx implements strategy.Ctx against a running Daemon: every
// method here either reads table/face state directly or forwards to a
// daemon method that does, keeping the strategy package itself free of
// any dependency on face transports or the scheduler's event type.
type strategyCtx struct {
	d *Daemon
}

func (c *strategyCtx) SendInterest(entry *table.InterestEntry, f face.ID) {
	c.d.forwardInterest(entry, f)
}

func (c *strategyCtx) ArmTimer(entry *table.InterestEntry, delayMicros int64) {
	c.d.armTimer(entry, delayMicros)
}

func (c *strategyCtx) DeferSend(entry *table.InterestEntry, f face.ID, delayMicros int64) {
	c.d.deferSend(entry, f, delayMicros)
}

// Upstreams reports the FIB-derived nexthop set for entry's prefix,
// excluding the faces that already hold a downstream item on the entry.
func (c *strategyCtx) Upstreams(entry *table.InterestEntry) (forwardTo []face.ID, tap map[face.ID]bool) {
	if entry.Npe == nil {
		return nil, nil
	}
	downstream := make(map[face.ID]bool)
	for _, it := range entry.Downstreams() {
		downstream[it.Face] = true
	}

	all := c.d.FIB.ForwardTo(entry.Npe)
	tapSet := make(map[face.ID]bool)
	for _, f := range c.d.FIB.Tap(entry.Npe) {
		tapSet[f] = true
	}

	for _, f := range all {
		if downstream[f] {
			continue
		}
		forwardTo = append(forwardTo, f)
	}
	for f := range tapSet {
		if downstream[f] {
			delete(tapSet, f)
		}
	}
	return forwardTo, tapSet
}

func (c *strategyCtx) IsInactive(f face.ID) bool {
	ff, ok := c.d.Faces.Find(f)
	if !ok {
		return true
	}
	return !ff.Transport().IsRunning()
}

func (c *strategyCtx) OutstandingInterests(f face.ID) int64 {
	ff, ok := c.d.Faces.Find(f)
	if !ok {
		return 0
	}
	return ff.Meters().OutstandingInterest.Load()
}

func (c *strategyCtx) GetFaceAttr(f face.ID, name string) uint64 {
	ff, ok := c.d.Faces.Find(f)
	if !ok {
		return 0
	}
	return ff.GetAttr(attrIndex(name))
}

func (c *strategyCtx) SetFaceAttr(f face.ID, name string, v uint64) {
	ff, ok := c.d.Faces.Find(f)
	if !ok {
		return
	}
	ff.SetAttr(attrIndex(name), v)
}

func (c *strategyCtx) NonZeroFaceAttrs(f face.ID) map[string]uint64 {
	ff, ok := c.d.Faces.Find(f)
	if !ok {
		return nil
	}
	out := make(map[string]uint64)
	for idx, v := range ff.NonZeroAttrs() {
		if name := face.AttrName(idx); name != "" {
			out[name] = v
		}
	}
	return out
}

func (c *strategyCtx) Notice(line string) {
	core.Log.Info(c.d, line)
}

func (c *strategyCtx) RandomMicros(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + c.d.rng.Int63n(hi-lo)
}

func (c *strategyCtx) RandomIndex(n int) int {
	if n <= 1 {
		return 0
	}
	return c.d.rng.Intn(n)
}
