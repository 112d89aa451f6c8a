package strategy

import (
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/table"
)

// nullStrategy never forwards anything: a deliberate black hole, useful
// for a prefix an operator wants to quarantine without removing its
// registrations.
type nullStrategy struct{}

func init() {
	registerClass("null", func() Instance { return &nullStrategy{} })
}

func (s *nullStrategy) className() string { return "null" }

func (s *nullStrategy) Init(params string) error { return nil }

func (s *nullStrategy) OnEvent(ctx Ctx, op Op, entry *table.InterestEntry, f face.ID) {}
