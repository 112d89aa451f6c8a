package strategy

import (
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/table"
)

// Tuning constants for the default strategy. The initial
// predicted-response seed is a cold-start guess that the TIMER/SATISFIED
// adjustment loop corrects quickly either way.
const (
	defaultInitialUsec = 50_000
	defaultCeilingUsec = 60_000_000
	defaultMinUsec     = 127
	defaultRandLoUsec  = 4_000
	defaultRandHiUsec  = 79_000
)

// defaultStrategy is the strategy the PIT's FIRST/TIMER/SATISFIED
// machinery hooks into: it keeps a single "best" and "older" source face
// per prefix plus a predicted response time, and uses them to decide
// which upstream faces get the Interest immediately versus staggered.
type defaultStrategy struct {
	best, older face.ID
	haveBest    bool
	usec        int64
}

func init() {
	registerClass(defaultClassName, func() Instance { return &defaultStrategy{} })
}

func (s *defaultStrategy) className() string { return defaultClassName }

// Init seeds the predicted response time; params is unused (the default
// strategy takes no configuration).
func (s *defaultStrategy) Init(params string) error {
	s.usec = defaultInitialUsec
	return nil
}

func (s *defaultStrategy) OnEvent(ctx Ctx, op Op, entry *table.InterestEntry, f face.ID) {
	switch op {
	case OpFirst:
		s.onFirst(ctx, entry)
	case OpTimer:
		// predicted-response up by 12.5%, clamped to the ceiling.
		s.usec += s.usec / 8
		if s.usec > defaultCeilingUsec {
			s.usec = defaultCeilingUsec
		}
	case OpSatisfied:
		if s.haveBest && f == s.best {
			s.usec -= s.usec / 128
			if s.usec < defaultMinUsec {
				s.usec = defaultMinUsec
			}
		} else {
			s.older = s.best
			s.best = f
			s.haveBest = true
		}
	}
}

// onFirst handles the FIRST callout: tap faces always
// get an immediate, unconditional copy; everything else is sent
// immediately (to best), staggered by usec (to older), or bagged with a
// randomized delay — unless no best is known yet, in which case every
// non-tap upstream gets a uniform random delay.
func (s *defaultStrategy) onFirst(ctx Ctx, entry *table.InterestEntry) {
	forwardTo, tap := ctx.Upstreams(entry)

	for f := range tap {
		ctx.SendInterest(entry, f)
	}

	if !s.haveBest {
		for _, f := range forwardTo {
			if tap[f] {
				continue
			}
			ctx.DeferSend(entry, f, ctx.RandomMicros(defaultRandLoUsec, defaultRandHiUsec))
		}
		return
	}

	var bag []face.ID
	for _, f := range forwardTo {
		switch f {
		case s.best:
			// A tap face already got its immediate copy above; the timer
			// still arms so the predicted-response loop keeps learning.
			if !tap[f] {
				ctx.SendInterest(entry, f)
			}
			ctx.ArmTimer(entry, s.usec)
		case s.older:
			if !tap[f] {
				ctx.DeferSend(entry, f, s.usec)
			}
		default:
			if !tap[f] {
				bag = append(bag, f)
			}
		}
	}

	remaining := int64(len(bag))
	if remaining == 0 {
		return
	}
	amount := 2 * ((s.usec + 1) / 2) / remaining
	for _, f := range bag {
		ctx.DeferSend(entry, f, s.usec+ctx.RandomMicros(0, amount+1))
	}
}
