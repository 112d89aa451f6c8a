package face

// Flags holds the boolean per-face attributes:
// local/trusted peers (GG), datagram vs stream framing, multicast
// membership, the accept-time UNDECIDED state, an in-flight connect,
// PERMANENT (never swept for inactivity), NOSEND (EPIPE tripped), LINK
// (message-framed PDU stream), and ADJ (adjacency negotiation completed).
// The ordering mirrors ccnd's face flag bit layout.
type Flags uint32

const (
	FlagLocal Flags = 1 << iota
	FlagDatagram
	FlagMulticast
	FlagUndecided
	FlagConnecting
	FlagPermanent
	FlagNoSend
	FlagGG
	FlagLink
	FlagADJ
	FlagPassive
)

// Has reports whether all bits in mask are set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Set returns f with mask's bits set.
func (f Flags) Set(mask Flags) Flags { return f | mask }

// Clear returns f with mask's bits cleared.
func (f Flags) Clear(mask Flags) Flags { return f &^ mask }
