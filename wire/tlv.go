package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// tag identifies the kind of TLV element in the stand-in wire framing.
// These are internal to this package; an external ccnb parser would
// produce the same typed structures from the real dictionary-tag
// encoding.
type tag byte

const (
	tagName tag = iota + 1
	tagComponent
	tagMinSuffix
	tagMaxSuffix
	tagPubKeyDigest
	tagExclude
	tagExcludeAny
	tagExcludeComp
	tagChildSelector
	tagAOK
	tagScope
	tagLifetime
	tagNonce
	tagSignedInfo
	tagPayload
	tagSignature
	tagKeyLocator

	tagMsgInterest tag = 0x40 + iota
	tagMsgContent
	tagMsgLinkPDU
	tagMsgSeq
)

func writeTLV(buf *bytes.Buffer, t tag, val []byte) {
	buf.WriteByte(byte(t))
	var lenbuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenbuf[:], uint64(len(val)))
	buf.Write(lenbuf[:n])
	buf.Write(val)
}

func writeVarint(buf *bytes.Buffer, t tag, v uint64) {
	var vbuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(vbuf[:], v)
	writeTLV(buf, t, vbuf[:n])
}

// tlvElem is one decoded (tag, value) pair plus the unread remainder.
type tlvElem struct {
	Tag tag
	Val []byte
}

func readTLV(b []byte) (tlvElem, []byte, error) {
	if len(b) < 1 {
		return tlvElem{}, nil, fmt.Errorf("wire: truncated tag")
	}
	t := tag(b[0])
	length, n := binary.Uvarint(b[1:])
	if n <= 0 {
		return tlvElem{}, nil, fmt.Errorf("wire: truncated length")
	}
	start := 1 + n
	end := start + int(length)
	if end > len(b) {
		return tlvElem{}, nil, fmt.Errorf("wire: truncated value")
	}
	return tlvElem{Tag: t, Val: b[start:end]}, b[end:], nil
}

// readAll decodes every TLV element in b, in order.
func readAll(b []byte) ([]tlvElem, error) {
	var out []tlvElem
	for len(b) > 0 {
		el, rest, err := readTLV(b)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
		b = rest
	}
	return out, nil
}

func readVarint(v []byte) (uint64, error) {
	u, n := binary.Uvarint(v)
	if n <= 0 {
		return 0, fmt.Errorf("wire: bad varint")
	}
	return u, nil
}
