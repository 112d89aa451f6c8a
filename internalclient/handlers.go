package internalclient

import (
	"net/url"
	"strconv"

	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/sched"
	"github.com/ccnxgo/ccnd/table"
	"github.com/ccnxgo/ccnd/wire"
)

// forwardingVerb distinguishes the six ForwardingEntry-payload requests,
// which all share the same decode/validate/act/reply shape and differ
// only in which table.FIB call they make.
type forwardingVerb int

const (
	verbPrefixReg forwardingVerb = iota
	verbSelfReg
	verbUnreg
	verbSetStrategy
	verbGetStrategy
	verbRemoveStrategy
)

// ipProtoKind maps the FaceInstance.IPProto convention (IPPROTO_TCP=6,
// IPPROTO_UDP=17) onto the transport-kind strings NewFaceFromSpec
// understands, matching ccnd's face_instance decoding.
func ipProtoKind(proto int) (string, bool) {
	switch proto {
	case 6:
		return "tcp", true
	case 17:
		return "udp", true
	default:
		return "", false
	}
}

func (c *Client) handleNewFace(in *wire.Interest, from face.ID, args []byte) *wire.ContentObject {
	ff, ok := c.ctx.FindFace(from)
	if !ok || !requireGG(ff) {
		return statusResponse(430, "")
	}
	fi, err := decodeFaceInstance(args)
	if err != nil {
		return statusResponse(501, err.Error())
	}
	kind, ok := ipProtoKind(fi.IPProto)
	if !ok {
		return statusResponse(504, "unsupported ipproto")
	}
	id, err := c.ctx.NewFaceFromSpec(kind, fi.Host, fi.Port)
	if err != nil {
		return statusResponse(450, err.Error())
	}

	vals := url.Values{}
	vals.Set("action", "newface")
	vals.Set("faceid", strconv.Itoa(int(id)))
	vals.Set("ipproto", strconv.Itoa(fi.IPProto))
	vals.Set("host", fi.Host)
	vals.Set("port", strconv.Itoa(fi.Port))
	return c.reply(in.Name, encodeValues(vals), wire.ContentTypeData)
}

func (c *Client) handleDestroyFace(in *wire.Interest, from face.ID, args []byte) *wire.ContentObject {
	ff, ok := c.ctx.FindFace(from)
	if !ok || !requireGG(ff) {
		return statusResponse(430, "")
	}
	fi, err := decodeFaceInstance(args)
	if err != nil {
		return statusResponse(501, err.Error())
	}
	if !c.ctx.DestroyFace(face.ID(fi.FaceID)) {
		return statusResponse(450, "no such face")
	}
	vals := url.Values{"action": {"destroyface"}, "faceid": {strconv.Itoa(fi.FaceID)}}
	return c.reply(in.Name, encodeValues(vals), wire.ContentTypeData)
}

// handleForwardingEntry dispatches the six FIB/strategy verbs sharing the
// ForwardingEntry payload shape.
func (c *Client) handleForwardingEntry(in *wire.Interest, from face.ID, args []byte, verb forwardingVerb) *wire.ContentObject {
	fe, err := decodeForwardingEntry(args)
	if err != nil {
		return statusResponse(501, err.Error())
	}
	if fe.Name == "" {
		return statusResponse(504, "missing name")
	}
	name := wire.NameFromStr(fe.Name)

	ff, ok := c.ctx.FindFace(from)
	if !ok {
		return statusResponse(430, "")
	}

	switch verb {
	case verbSelfReg:
		npe := c.ctx.FIBIntern(name)
		flags := table.ForwardActive | table.ForwardChildInherit
		c.ctx.FIBRegister(npe, from, flags, c.expiryTicks(fe.LifetimeSecs))
		return c.forwardingReply(in.Name, fe, int(from))

	case verbPrefixReg:
		if !requireGG(ff) {
			return statusResponse(430, "")
		}
		target := face.ID(fe.FaceID)
		npe := c.ctx.FIBIntern(name)
		c.ctx.FIBRegister(npe, target, table.ForwardFlags(fe.Flags), c.expiryTicks(fe.LifetimeSecs))
		return c.forwardingReply(in.Name, fe, fe.FaceID)

	case verbUnreg:
		target := face.ID(fe.FaceID)
		if target != from && !requireGG(ff) {
			return statusResponse(430, "")
		}
		if !c.ctx.FIBUnregister(name, target) {
			return statusResponse(450, "no such registration")
		}
		return c.forwardingReply(in.Name, fe, fe.FaceID)

	case verbSetStrategy:
		if !requireGG(ff) {
			return statusResponse(430, "")
		}
		npe := c.ctx.FIBIntern(name)
		if !c.ctx.SetStrategy(npe, fe.Strategy, fe.StrategyParam) {
			return statusResponse(504, "unknown strategy class")
		}
		return c.forwardingReply(in.Name, fe, fe.FaceID)

	case verbGetStrategy:
		npe := c.ctx.FIBIntern(name)
		class, params, ok := c.ctx.CurrentClass(npe)
		if !ok {
			return statusResponse(450, "no strategy set at this prefix")
		}
		vals := url.Values{"action": {"getstrategy"}, "name": {fe.Name}, "strategy": {class}, "strategyparam": {params}}
		return c.reply(in.Name, encodeValues(vals), wire.ContentTypeData)

	case verbRemoveStrategy:
		if !requireGG(ff) {
			return statusResponse(430, "")
		}
		npe := c.ctx.FIBIntern(name)
		c.ctx.RemoveStrategy(npe)
		return c.forwardingReply(in.Name, fe, fe.FaceID)

	default:
		return statusResponse(504, "unknown verb")
	}
}

// expiryTicks converts a registration's lifetime in seconds into an
// absolute scheduler tick, or 0 for a permanent registration.
func (c *Client) expiryTicks(lifetimeSecs int) int64 {
	if lifetimeSecs <= 0 {
		return 0
	}
	return int64(c.ctx.Now()) + int64(lifetimeSecs)*1_000_000/sched.MicrosPerTick
}

func (c *Client) forwardingReply(name wire.Name, fe *ForwardingEntry, faceID int) *wire.ContentObject {
	vals := url.Values{
		"action": {fe.Action},
		"name":   {fe.Name},
		"faceid": {strconv.Itoa(faceID)},
	}
	return c.reply(name, encodeValues(vals), wire.ContentTypeData)
}
