package wire

import "github.com/ccnxgo/ccnd/std/types/optional"

// ContentType distinguishes ordinary data from key/link/gone objects;
// KEY objects are eligible for the Content Store's PRECIOUS treatment.
type ContentType uint8

const (
	ContentTypeData ContentType = iota
	ContentTypeKey
	ContentTypeLink
	ContentTypeGone
)

// SignedInfo carries the non-payload metadata of a ContentObject.
type SignedInfo struct {
	Type             ContentType
	FreshnessSeconds optional.Optional[int]
	KeyLocatorName   Name
}

// ContentObject is the parsed form of a ccnx ContentObject message. Name
// is the object's name as published, without the implicit digest
// component the Content Store appends on insertion.
type ContentObject struct {
	Name       Name
	SignedInfo SignedInfo
	Payload    []byte
	// Signature is opaque to the forwarding core: verification is the
	// narrow signing-params API's job (signing.Verifier), not this
	// package's.
	Signature []byte
	KeyLocator []byte
}
