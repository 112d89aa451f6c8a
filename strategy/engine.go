package strategy

import (
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/table"
)

// defaultClassName is instantiated for any prefix that never had
// set-strategy called and has no ancestor with one either (default).
const defaultClassName = "default"

// Engine resolves which per-prefix Instance governs a PIT entry (walking
// the NameprefixEntry ancestor chain)
// and dispatches callouts to it. It implements table.StrategyNotifier so
// the PIT's expiry wheel can reach it without an import cycle.
type Engine struct {
	ctx Ctx
}

// NewEngine builds an Engine bound to the daemon's Ctx implementation.
func NewEngine(ctx Ctx) *Engine {
	return &Engine{ctx: ctx}
}

// resolve returns the Instance governing npe: the first explicit
// instance found walking from npe to the root, instantiating "default"
// lazily at npe itself if the whole chain is empty.
func (e *Engine) resolve(npe *table.NameprefixEntry) Instance {
	for p := npe; p != nil; p = p.Parent() {
		if inst, ok := p.Strategy().(Instance); ok && inst != nil {
			return inst
		}
	}
	inst, _ := New(defaultClassName, "")
	npe.SetStrategy(inst, "")
	inst.OnEvent(e.ctx, OpInit, nil, 0)
	return inst
}

// Notify dispatches op to the Instance governing entry's prefix.
func (e *Engine) Notify(entry *table.InterestEntry, op Op, f face.ID) {
	npe := entry.Npe
	if npe == nil {
		return
	}
	inst := e.resolve(npe)
	inst.OnEvent(e.ctx, op, entry, f)
}

// NotifyPIT implements table.StrategyNotifier: the PIT's expiry wheel
// calls this with the narrow int op codes published via SetOpCodes.
func (e *Engine) NotifyPIT(entry *table.InterestEntry, op int, f face.ID) {
	e.Notify(entry, Op(op), f)
}

// SetStrategy explicitly installs class/params on npe (the internal
// client's setstrategy verb), finalizing any prior instance first.
func SetStrategy(ctx Ctx, npe *table.NameprefixEntry, class, params string) bool {
	inst, ok := New(class, params)
	if !ok {
		return false
	}
	if old, ok := npe.Strategy().(Instance); ok && old != nil {
		old.OnEvent(ctx, OpFinalize, nil, 0)
	}
	npe.SetStrategy(inst, params)
	inst.OnEvent(ctx, OpInit, nil, 0)
	return true
}

// RemoveStrategy clears npe's explicit instance, falling back to
// ancestor inheritance on next use (the internal client's
// removestrategy verb).
func RemoveStrategy(ctx Ctx, npe *table.NameprefixEntry) {
	if old, ok := npe.Strategy().(Instance); ok && old != nil {
		old.OnEvent(ctx, OpFinalize, nil, 0)
	}
	npe.SetStrategy(nil, "")
}

// CurrentClass reports the class id configured at npe, if any was ever
// set explicitly there (getstrategy's diagnostic read). Built-in
// instances satisfy classNamed to report their own id.
func CurrentClass(npe *table.NameprefixEntry) (string, string, bool) {
	inst, ok := npe.Strategy().(Instance)
	if !ok || inst == nil {
		return "", "", false
	}
	named, ok := inst.(classNamed)
	if !ok {
		return "", npe.StrategyParam(), true
	}
	return named.className(), npe.StrategyParam(), true
}

// classNamed is satisfied by every built-in strategy so CurrentClass can
// report which class id is installed.
type classNamed interface {
	className() string
}

func init() {
	table.SetOpCodes(int(OpExpUp), int(OpTimeout))
}
