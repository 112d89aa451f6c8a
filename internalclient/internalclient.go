// Package internalclient implements the daemon's in-process control-plane
// peer: an internal pseudo-face (face 0) answering a fixed
// set of ccnx:/ccnx/<ccnd_id>/... verbs — newface, destroyface, prefixreg,
// selfreg, unreg, setstrategy, getstrategy, removestrategy, ping,
// notice.txt — plus the self key object at
// %C1.M.S.localhost/%C1.M.SRV/ccnd, with the %C1.M.FACE
// adjacency namespace delegated to whatever handler the adjacency package
// registers via RegisterAdjacencyHandler.
//
// The layout is a verb-keyed dispatch table, a code/text reply shape
// (StatusResponse), and a "trust the embedded params, validate
// structurally" posture for the FaceInstance/ForwardingEntry payloads,
// decoded with gorilla/schema rather than a hand-rolled field parser.
package internalclient

import (
	"crypto/ed25519"
	"fmt"

	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/sched"
	"github.com/ccnxgo/ccnd/table"
	"github.com/ccnxgo/ccnd/wire"
)

// Ctx is the narrow surface the internal client needs from the running
// daemon, mirroring daemon.strategyCtx's role for the strategy package:
// enough to mutate faces, the FIB, and per-prefix strategy state, without
// an import cycle back onto the daemon package.
type Ctx interface {
	Now() sched.Tick
	CcndID() [32]byte
	PublicKey() ed25519.PublicKey
	Sign(body []byte) []byte
	Verify(body, sig []byte, pub ed25519.PublicKey) bool

	NewFaceFromSpec(kind, host string, port int) (face.ID, error)
	DestroyFace(id face.ID) bool
	FindFace(id face.ID) (*face.Face, bool)

	FIBIntern(name wire.Name) *table.NameprefixEntry
	FIBRegister(npe *table.NameprefixEntry, f face.ID, flags table.ForwardFlags, expiryTicks int64) *table.Forwarding
	FIBUnregister(name wire.Name, f face.ID) bool

	SetStrategy(npe *table.NameprefixEntry, class, params string) bool
	RemoveStrategy(npe *table.NameprefixEntry)
	CurrentClass(npe *table.NameprefixEntry) (class, params string, ok bool)
}

// prefix is the well-known root every control verb lives under: the hex
// rendering of the daemon's own ccnd_id.
func prefix(ccndID [32]byte) wire.Name {
	return wire.NameFromStr("ccnx:/ccnx/" + hexString(ccndID[:]))
}

func hexString(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexdigits[c>>4]
		out[i*2+1] = hexdigits[c&0xf]
	}
	return string(out)
}

// AdjacencyHandler answers an Interest under the %C1.M.FACE namespace,
// returning ok=false if it does not recognize in after all (should not
// normally happen once registered, since Client only routes matching
// names to it).
type AdjacencyHandler func(in *wire.Interest, from face.ID) (*wire.ContentObject, bool)

// Client is the internal client: it owns the notice stream's sequence
// counter and dispatches verb Interests to handler methods.
type Client struct {
	ctx        Ctx
	prefix     wire.Name
	notice     *noticeStream
	adjPrefix  wire.Name
	adjHandler AdjacencyHandler
}

// New builds a Client bound to a running daemon's Ctx.
func New(ctx Ctx) *Client {
	c := &Client{ctx: ctx}
	c.prefix = prefix(ctx.CcndID())
	c.notice = newNoticeStream()
	return c
}

// RegisterAdjacencyHandler installs the %C1.M.FACE namespace's handler,
// called once from daemon startup after both the
// internal client and the adjacency negotiator exist. adjPrefix is
// typically ccnx:/%C1.M.FACE under the daemon's own ccnd_id root.
func (c *Client) RegisterAdjacencyHandler(adjPrefix wire.Name, h AdjacencyHandler) {
	c.adjPrefix = adjPrefix
	c.adjHandler = h
}

// NoticeLine appends a line to the notice.txt stream (face births/deaths,
// adjacency events).
func (c *Client) NoticeLine(line string) {
	c.notice.append(line)
}

// String satisfies fmt.Stringer for logging.
func (c *Client) String() string { return "internalclient" }

// Handle answers in if its name falls under one of the internal client's
// registered namespaces, returning ok=false so the daemon's ordinary
// FIB/PIT/CS path takes over for everything else. Replies from here never
// touch the PIT: the internal client is itself the originating and
// terminating peer for these exchanges.
func (c *Client) Handle(in *wire.Interest, from face.ID) (*wire.ContentObject, bool) {
	if c.adjHandler != nil && len(c.adjPrefix) > 0 && c.adjPrefix.IsPrefix(in.Name) {
		return c.adjHandler(in, from)
	}
	if srvKeyName.IsPrefix(in.Name) {
		return c.replyKeyObject(in), true
	}
	if !c.prefix.IsPrefix(in.Name) || len(in.Name) <= len(c.prefix) {
		return nil, false
	}

	verbDepth := len(c.prefix)
	verb := in.Name[verbDepth].String()
	args := argsOf(in, verbDepth+1)
	switch verb {
	case "ping":
		return c.handlePing(in), true
	case "newface":
		return c.handleNewFace(in, from, args), true
	case "destroyface":
		return c.handleDestroyFace(in, from, args), true
	case "prefixreg":
		return c.handleForwardingEntry(in, from, args, verbPrefixReg), true
	case "selfreg":
		return c.handleForwardingEntry(in, from, args, verbSelfReg), true
	case "unreg":
		return c.handleForwardingEntry(in, from, args, verbUnreg), true
	case "setstrategy":
		return c.handleForwardingEntry(in, from, args, verbSetStrategy), true
	case "getstrategy":
		return c.handleForwardingEntry(in, from, args, verbGetStrategy), true
	case "removestrategy":
		return c.handleForwardingEntry(in, from, args, verbRemoveStrategy), true
	case "notice.txt":
		return c.handleNotice(in), true
	default:
		return statusResponse(504, fmt.Sprintf("unknown verb %q", verb)), true
	}
}

// argsOf extracts the request's flattened key=value argument bytes,
// carried as the Name component immediately following the verb.
func argsOf(in *wire.Interest, verbDepth int) []byte {
	if len(in.Name) <= verbDepth {
		return nil
	}
	return in.Name[verbDepth].Val
}

// handlePing answers with a tiny self-describing reply.
func (c *Client) handlePing(in *wire.Interest) *wire.ContentObject {
	id := c.ctx.CcndID()
	body := "ccnd " + hexString(id[:])
	return c.reply(in.Name, []byte(body), wire.ContentTypeData)
}

// reply builds a ContentObject published under name, signed with the
// daemon's own key.
func (c *Client) reply(name wire.Name, payload []byte, typ wire.ContentType) *wire.ContentObject {
	obj := &wire.ContentObject{
		Name:    name,
		Payload: payload,
		SignedInfo: wire.SignedInfo{
			Type: typ,
		},
	}
	raw := wire.EncodeContent(obj)
	obj.Signature = c.ctx.Sign(raw)
	return obj
}

// statusCodeLabels gives the canonical short text for each NACK code used
// by control requests.
var statusCodeLabels = map[int]string{
	430: "not authorized",
	450: "generic request failure",
	453: "multicast setup failed",
	501: "syntax error in address",
	504: "parameter error",
	531: "wrong ccnd_id",
}

// statusResponse builds a StatusResponse(code, text) reply; a 2xx code
// means success. text
// defaults to the code's canonical label if empty.
func statusResponse(code int, text string) *wire.ContentObject {
	if text == "" {
		text = statusCodeLabels[code]
	}
	return &wire.ContentObject{
		Payload: []byte(fmt.Sprintf("%d %s", code, text)),
	}
}

// requireGG enforces the control-plane authorization rule: mutating requests
// require the requesting face to carry GG (local, trusted peer).
func requireGG(f *face.Face) bool {
	return f.Flags().Has(face.FlagGG)
}
