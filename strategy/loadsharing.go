package strategy

import (
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/table"
)

// loadsharingSlowAttr is the per-face attribute name loadsharing uses to
// penalize a face that recently timed out.
const loadsharingSlowAttr = "slow"

// loadsharingStrategy picks the single least-loaded upstream on UPDATE,
// where load is outstanding-interest count plus penalties for an
// inactive or recently-slow face, breaking ties uniformly at random.
type loadsharingStrategy struct{}

func init() {
	registerClass("loadsharing", func() Instance { return &loadsharingStrategy{} })
}

func (s *loadsharingStrategy) className() string { return "loadsharing" }

func (s *loadsharingStrategy) Init(params string) error { return nil }

func (s *loadsharingStrategy) OnEvent(ctx Ctx, op Op, entry *table.InterestEntry, f face.ID) {
	switch op {
	case OpFirst, OpUpdate:
		if len(entry.Upstreams()) > 0 {
			return
		}
		s.pickOne(ctx, entry)
	case OpExpUp:
		ctx.SetFaceAttr(f, loadsharingSlowAttr, 1)
	case OpSatisfied:
		ctx.SetFaceAttr(f, loadsharingSlowAttr, 0)
	}
}

func (s *loadsharingStrategy) pickOne(ctx Ctx, entry *table.InterestEntry) {
	forwardTo, tap := ctx.Upstreams(entry)
	for f := range tap {
		ctx.SendInterest(entry, f)
	}

	var best []face.ID
	var bestDepth int64 = -1
	for _, f := range forwardTo {
		if tap[f] {
			continue
		}
		depth := ctx.OutstandingInterests(f)
		if ctx.IsInactive(f) {
			depth += 1000
		}
		if ctx.GetFaceAttr(f, loadsharingSlowAttr) != 0 {
			depth += 32
		}
		switch {
		case bestDepth < 0 || depth < bestDepth:
			bestDepth = depth
			best = []face.ID{f}
		case depth == bestDepth:
			best = append(best, f)
		}
	}
	if len(best) == 0 {
		return
	}
	pick := best[0]
	if len(best) > 1 {
		pick = best[ctx.RandomIndex(len(best))]
	}
	ctx.SendInterest(entry, pick)
}
