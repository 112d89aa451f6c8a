package strategy

import (
	"strings"

	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/table"
)

// traceStrategy wraps another strategy and logs every callout to the
// notice stream, parsing its parameter string as "inner-name/inner-params"
//. A trailing slash with empty inner params resolves to
// "default" rather than null, and that resolution is surfaced to the notice stream so an
// operator watching can see which way the ambiguity was broken.
type traceStrategy struct {
	innerName string
	inner     Instance
}

func init() {
	registerClass("trace", func() Instance { return &traceStrategy{} })
}

func (s *traceStrategy) className() string { return "trace" }

func (s *traceStrategy) Init(params string) error {
	name, innerParams, _ := strings.Cut(params, "/")
	if name == "" {
		name = defaultClassName
	}
	inst, ok := New(name, innerParams)
	if !ok {
		inst, _ = New(defaultClassName, "")
		name = defaultClassName
	}
	s.innerName = name
	s.inner = inst
	return nil
}

func (s *traceStrategy) OnEvent(ctx Ctx, op Op, entry *table.InterestEntry, f face.ID) {
	name := "?"
	if entry != nil && entry.Npe != nil {
		name = entry.Npe.Name().String()
	}
	ctx.Notice("trace(" + s.innerName + ") " + op.String() + " prefix=" + name)
	if s.inner != nil {
		s.inner.OnEvent(ctx, op, entry, f)
	}
}
