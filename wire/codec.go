package wire

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ccnxgo/ccnd/std/types/optional"
)

// EncodeName serializes a Name as a sequence of tagComponent elements.
func EncodeName(n Name) []byte {
	buf := &bytes.Buffer{}
	for _, c := range n {
		cbuf := &bytes.Buffer{}
		cbuf.WriteByte(byte(c.Typ))
		cbuf.Write(c.Val)
		writeTLV(buf, tagComponent, cbuf.Bytes())
	}
	return buf.Bytes()
}

// DecodeName parses a Name previously produced by EncodeName.
func DecodeName(b []byte) (Name, error) {
	els, err := readAll(b)
	if err != nil {
		return nil, err
	}
	name := make(Name, 0, len(els))
	for _, el := range els {
		if el.Tag != tagComponent || len(el.Val) < 1 {
			return nil, fmt.Errorf("wire: bad name component")
		}
		name = append(name, Component{Typ: CompType(el.Val[0]), Val: append([]byte(nil), el.Val[1:]...)})
	}
	return name, nil
}

func encodeExclude(e Exclude) []byte {
	buf := &bytes.Buffer{}
	for _, t := range e {
		if t.Any {
			writeTLV(buf, tagExcludeAny, nil)
		} else {
			cbuf := &bytes.Buffer{}
			cbuf.WriteByte(byte(t.Comp.Typ))
			cbuf.Write(t.Comp.Val)
			writeTLV(buf, tagExcludeComp, cbuf.Bytes())
		}
	}
	return buf.Bytes()
}

func decodeExclude(b []byte) (Exclude, error) {
	els, err := readAll(b)
	if err != nil {
		return nil, err
	}
	out := make(Exclude, 0, len(els))
	for _, el := range els {
		switch el.Tag {
		case tagExcludeAny:
			out = append(out, ExcludeTerm{Any: true})
		case tagExcludeComp:
			if len(el.Val) < 1 {
				return nil, fmt.Errorf("wire: bad exclude component")
			}
			out = append(out, ExcludeTerm{Comp: Component{Typ: CompType(el.Val[0]), Val: append([]byte(nil), el.Val[1:]...)}})
		default:
			return nil, fmt.Errorf("wire: unknown exclude term tag %d", el.Tag)
		}
	}
	return out, nil
}

// EncodeInterest serializes an Interest into the stand-in wire framing.
// Used both for transmission and (with Nonce zeroed) as the PIT
// fingerprint key — see Interest.FingerprintKey.
func EncodeInterest(i *Interest) []byte {
	buf := &bytes.Buffer{}
	writeTLV(buf, tagName, EncodeName(i.Name))
	if v, ok := i.MinSuffixComponents.Get(); ok {
		writeVarint(buf, tagMinSuffix, uint64(v))
	}
	if v, ok := i.MaxSuffixComponents.Get(); ok {
		writeVarint(buf, tagMaxSuffix, uint64(v))
	}
	if len(i.PublisherKeyDigest) > 0 {
		writeTLV(buf, tagPubKeyDigest, i.PublisherKeyDigest)
	}
	if len(i.Exclude) > 0 {
		writeTLV(buf, tagExclude, encodeExclude(i.Exclude))
	}
	writeVarint(buf, tagChildSelector, uint64(i.ChildSelector))
	writeVarint(buf, tagAOK, uint64(i.AnswerOriginKind))
	if v, ok := i.Scope.Get(); ok {
		writeVarint(buf, tagScope, uint64(v))
	}
	writeVarint(buf, tagLifetime, uint64(i.InterestLifetime.Microseconds()))
	if len(i.Nonce) > 0 {
		writeTLV(buf, tagNonce, i.Nonce)
	}
	return buf.Bytes()
}

// DecodeInterest parses an Interest body (without the outer message tag).
func DecodeInterest(b []byte) (*Interest, error) {
	els, err := readAll(b)
	if err != nil {
		return nil, err
	}
	out := &Interest{}
	for _, el := range els {
		switch el.Tag {
		case tagName:
			if out.Name, err = DecodeName(el.Val); err != nil {
				return nil, err
			}
		case tagMinSuffix:
			v, err := readVarint(el.Val)
			if err != nil {
				return nil, err
			}
			out.MinSuffixComponents = optional.Some(int(v))
		case tagMaxSuffix:
			v, err := readVarint(el.Val)
			if err != nil {
				return nil, err
			}
			out.MaxSuffixComponents = optional.Some(int(v))
		case tagPubKeyDigest:
			out.PublisherKeyDigest = append([]byte(nil), el.Val...)
		case tagExclude:
			if out.Exclude, err = decodeExclude(el.Val); err != nil {
				return nil, err
			}
		case tagChildSelector:
			v, err := readVarint(el.Val)
			if err != nil {
				return nil, err
			}
			out.ChildSelector = ChildSelector(v)
		case tagAOK:
			v, err := readVarint(el.Val)
			if err != nil {
				return nil, err
			}
			out.AnswerOriginKind = AnswerOriginKind(v)
		case tagScope:
			v, err := readVarint(el.Val)
			if err != nil {
				return nil, err
			}
			out.Scope = optional.Some(int(v))
		case tagLifetime:
			v, err := readVarint(el.Val)
			if err != nil {
				return nil, err
			}
			out.InterestLifetime = time.Duration(v) * time.Microsecond
		case tagNonce:
			out.Nonce = append([]byte(nil), el.Val...)
		default:
			// forward-compatible: ignore unknown fields
		}
	}
	return out, nil
}

// EncodeContent serializes a ContentObject into the stand-in wire framing.
func EncodeContent(c *ContentObject) []byte {
	buf := &bytes.Buffer{}
	writeTLV(buf, tagName, EncodeName(c.Name))

	si := &bytes.Buffer{}
	si.WriteByte(byte(c.SignedInfo.Type))
	if v, ok := c.SignedInfo.FreshnessSeconds.Get(); ok {
		writeVarint(si, tagMinSuffix /* reused as scratch scalar tag */, uint64(v))
	}
	if len(c.SignedInfo.KeyLocatorName) > 0 {
		writeTLV(si, tagName, EncodeName(c.SignedInfo.KeyLocatorName))
	}
	writeTLV(buf, tagSignedInfo, si.Bytes())

	writeTLV(buf, tagPayload, c.Payload)
	if len(c.Signature) > 0 {
		writeTLV(buf, tagSignature, c.Signature)
	}
	if len(c.KeyLocator) > 0 {
		writeTLV(buf, tagKeyLocator, c.KeyLocator)
	}
	return buf.Bytes()
}

// DecodeContent parses a ContentObject body (without the outer message tag).
func DecodeContent(b []byte) (*ContentObject, error) {
	els, err := readAll(b)
	if err != nil {
		return nil, err
	}
	out := &ContentObject{}
	for _, el := range els {
		switch el.Tag {
		case tagName:
			if out.Name, err = DecodeName(el.Val); err != nil {
				return nil, err
			}
		case tagSignedInfo:
			if len(el.Val) < 1 {
				return nil, fmt.Errorf("wire: empty SignedInfo")
			}
			inner, err := readAll(el.Val[1:])
			if err != nil {
				return nil, err
			}
			out.SignedInfo.Type = ContentType(el.Val[0])
			for _, sub := range inner {
				switch sub.Tag {
				case tagMinSuffix:
					v, err := readVarint(sub.Val)
					if err != nil {
						return nil, err
					}
					out.SignedInfo.FreshnessSeconds = optional.Some(int(v))
				case tagName:
					if out.SignedInfo.KeyLocatorName, err = DecodeName(sub.Val); err != nil {
						return nil, err
					}
				}
			}
		case tagPayload:
			out.Payload = append([]byte(nil), el.Val...)
		case tagSignature:
			out.Signature = append([]byte(nil), el.Val...)
		case tagKeyLocator:
			out.KeyLocator = append([]byte(nil), el.Val...)
		}
	}
	return out, nil
}

// Encode serializes a full IncomingMessage with its outer message tag,
// suitable for sendFrame on a transport.
func Encode(m IncomingMessage) ([]byte, error) {
	buf := &bytes.Buffer{}
	switch {
	case m.Interest != nil:
		writeTLV(buf, tagMsgInterest, EncodeInterest(m.Interest))
	case m.Content != nil:
		writeTLV(buf, tagMsgContent, EncodeContent(m.Content))
	case m.Link != nil:
		inner := &bytes.Buffer{}
		for _, sub := range m.Link.Messages {
			b, err := Encode(sub)
			if err != nil {
				return nil, err
			}
			inner.Write(b)
		}
		writeTLV(buf, tagMsgLinkPDU, inner.Bytes())
	case m.Seq != nil:
		sbuf := &bytes.Buffer{}
		writeVarint(sbuf, tagMsgSeq, m.Seq.Seq)
		writeTLV(buf, tagMsgSeq, sbuf.Bytes())
	default:
		return nil, fmt.Errorf("wire: empty message")
	}
	return buf.Bytes(), nil
}

// FrameLen reports the byte length of the next complete framed message at
// the head of b (outer tag + length + value), or ok=false if b does not
// yet hold a full message. A stream face's receive buffer uses this to
// tell a genuinely truncated read apart from a malformed one: once
// FrameLen succeeds, every error Decode can still return on that slice is
// a real decode failure, not a need for more bytes.
func FrameLen(b []byte) (n int, ok bool) {
	_, rest, err := readTLV(b)
	if err != nil {
		return 0, false
	}
	return len(b) - len(rest), true
}

// Decode parses one framed message, returning the sum type the dispatcher
// pattern-matches on.
func Decode(b []byte) (IncomingMessage, []byte, error) {
	el, rest, err := readTLV(b)
	if err != nil {
		return IncomingMessage{}, nil, err
	}
	switch el.Tag {
	case tagMsgInterest:
		i, err := DecodeInterest(el.Val)
		if err != nil {
			return IncomingMessage{}, nil, err
		}
		return IncomingMessage{Interest: i}, rest, nil
	case tagMsgContent:
		c, err := DecodeContent(el.Val)
		if err != nil {
			return IncomingMessage{}, nil, err
		}
		return IncomingMessage{Content: c}, rest, nil
	case tagMsgLinkPDU:
		var msgs []IncomingMessage
		body := el.Val
		for len(body) > 0 {
			m, remBody, err := Decode(body)
			if err != nil {
				return IncomingMessage{}, nil, err
			}
			msgs = append(msgs, m)
			body = remBody
		}
		return IncomingMessage{Link: &LinkPDU{Messages: msgs}}, rest, nil
	case tagMsgSeq:
		inner, err := readAll(el.Val)
		if err != nil || len(inner) != 1 {
			return IncomingMessage{}, nil, fmt.Errorf("wire: bad seq message")
		}
		v, err := readVarint(inner[0].Val)
		if err != nil {
			return IncomingMessage{}, nil, err
		}
		return IncomingMessage{Seq: &SeqProbe{Seq: v}}, rest, nil
	default:
		return IncomingMessage{}, nil, fmt.Errorf("wire: unknown message tag %d", el.Tag)
	}
}
