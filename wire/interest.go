package wire

import (
	"time"

	"github.com/ccnxgo/ccnd/std/types/optional"
)

// AnswerOriginKind bits gate whether a stale or generated-from-cache
// reply is acceptable.
type AnswerOriginKind uint8

const (
	AOKContentStore AnswerOriginKind = 1 << iota
	AOKGenerated
	AOKStale
	AOKExpireGen
)

// ChildSelector picks which of several matching children to prefer.
type ChildSelector int

const (
	ChildSelectorLeftmost ChildSelector = iota
	ChildSelectorRightmost
)

// Default and bounds for InterestLifetime.
const (
	DefaultInterestLifetime = 4 * time.Second
	MinInterestLifetime     = 250 * time.Millisecond
	MaxInterestLifetime     = 7 * 24 * time.Hour
)

// Interest is the parsed form of a ccnx Interest message.
type Interest struct {
	Name                 Name
	MinSuffixComponents  optional.Optional[int]
	MaxSuffixComponents  optional.Optional[int]
	PublisherKeyDigest   []byte
	Exclude              Exclude
	ChildSelector        ChildSelector
	AnswerOriginKind     AnswerOriginKind
	Scope                optional.Optional[int]
	InterestLifetime     time.Duration
	Nonce                []byte
}

// ClampedLifetime rounds the Interest's lifetime up to the nearest 1/8
// second and clamps it to [MinInterestLifetime, MaxInterestLifetime],
// the form a PIT face-item's expiry refresh consumes.
func (i *Interest) ClampedLifetime() time.Duration {
	d := i.InterestLifetime
	if d <= 0 {
		d = DefaultInterestLifetime
	}
	const eighth = 125 * time.Millisecond
	if rem := d % eighth; rem != 0 {
		d += eighth - rem
	}
	if d < MinInterestLifetime {
		d = MinInterestLifetime
	}
	if d > MaxInterestLifetime {
		d = MaxInterestLifetime
	}
	return d
}

// FingerprintKey returns the bytes used to key a PIT entry: the encoded
// Interest with its Nonce region excluded, so retransmissions that vary
// only the nonce coalesce onto the same entry.
func (i *Interest) FingerprintKey() []byte {
	cp := *i
	cp.Nonce = nil
	return EncodeInterest(&cp)
}
