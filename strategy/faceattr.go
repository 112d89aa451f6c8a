package strategy

import (
	"strconv"
	"strings"

	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/table"
)

// faceattrStrategy is not really a strategy: set-strategy
// abuses the class-registration mechanism to mutate a face attribute
// during INIT, parsing "faceid/attrname=value" where value is a
// non-negative integer, "true", or "false". An empty attr part reports
// the face's non-zero attributes back instead of writing anything.
type faceattrStrategy struct{}

func init() {
	registerClass("faceattr", func() Instance { return &faceattrStrategy{} })
}

func (s *faceattrStrategy) className() string { return "faceattr" }

func (s *faceattrStrategy) Init(params string) error { return nil }

func (s *faceattrStrategy) OnEvent(ctx Ctx, op Op, entry *table.InterestEntry, f face.ID) {}

// ApplyFaceAttr performs the INIT-time parse/mutate described above; the
// internal client's setstrategy verb calls this directly (rather than
// going through OnEvent, since the mutation needs npe's param string,
// which isn't available as a PIT callout argument) whenever the
// requested class is "faceattr".
func ApplyFaceAttr(ctx Ctx, params string) string {
	faceIDStr, attrPart, _ := strings.Cut(params, "/")
	slot, err := strconv.Atoi(faceIDStr)
	if err != nil {
		return "faceattr: bad faceid " + faceIDStr
	}
	f := face.ID(slot)

	name, valueStr, hasValue := strings.Cut(attrPart, "=")
	if name == "" {
		var sb strings.Builder
		sb.WriteString("faceattr(")
		sb.WriteString(faceIDStr)
		sb.WriteString("):")
		for attr, v := range ctx.NonZeroFaceAttrs(f) {
			sb.WriteString(" ")
			sb.WriteString(attr)
			sb.WriteString("=")
			sb.WriteString(strconv.FormatUint(v, 10))
		}
		return sb.String()
	}
	if !hasValue {
		return "faceattr: missing =value for " + name
	}

	var v uint64
	switch valueStr {
	case "true":
		v = 1
	case "false":
		v = 0
	default:
		n, err := strconv.ParseUint(valueStr, 10, 64)
		if err != nil {
			return "faceattr: bad value " + valueStr
		}
		v = n
	}
	ctx.SetFaceAttr(f, name, v)
	return ""
}
