package strategy

import (
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/table"
)

// parallelStrategy sends to every FIB-selected upstream with no
// staggering at all: on UPDATE, every face with ATTENTION flips straight
// to SENDUPST.
type parallelStrategy struct{}

func init() {
	registerClass("parallel", func() Instance { return &parallelStrategy{} })
}

func (s *parallelStrategy) className() string { return "parallel" }

func (s *parallelStrategy) Init(params string) error { return nil }

func (s *parallelStrategy) OnEvent(ctx Ctx, op Op, entry *table.InterestEntry, f face.ID) {
	switch op {
	case OpFirst, OpUpdate:
		forwardTo, _ := ctx.Upstreams(entry)
		for _, f := range forwardTo {
			ctx.SendInterest(entry, f)
		}
	}
}
