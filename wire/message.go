package wire

// LinkPDU wraps one or more messages framed together on a LINK face.
type LinkPDU struct {
	Messages []IncomingMessage
}

// SeqProbe is a SequenceNumber message driving link-sequence probing on
// unicast datagram faces.
type SeqProbe struct {
	Seq uint64
}

// IncomingMessage is the sum type the dispatcher switches on, replacing
// the C decoder's leading-DTAG peek with a single pattern match.
type IncomingMessage struct {
	Interest *Interest
	Content  *ContentObject
	Link     *LinkPDU
	Seq      *SeqProbe
}

// Kind reports which alternative is populated, for logging.
func (m IncomingMessage) Kind() string {
	switch {
	case m.Interest != nil:
		return "interest"
	case m.Content != nil:
		return "content"
	case m.Link != nil:
		return "link-pdu"
	case m.Seq != nil:
		return "seq"
	default:
		return "empty"
	}
}
