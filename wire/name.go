package wire

import "strings"

// Name is a sequence of binary components, optionally ending in the
// implicit digest component the Content Store inserts on receipt.
type Name []Component

// NameFromStr builds a Name from a "/"-separated URI-ish string. Empty
// segments (leading/trailing/doubled slashes) are dropped.
func NameFromStr(s string) Name {
	parts := strings.Split(s, "/")
	name := make(Name, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		name = append(name, NewComponent(p))
	}
	return name
}

// String renders the name back to "/"-joined form for logs.
func (n Name) String() string {
	if len(n) == 0 {
		return "/"
	}
	sb := strings.Builder{}
	for _, c := range n {
		sb.WriteRune('/')
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Clone returns a deep copy of the name.
func (n Name) Clone() Name {
	out := make(Name, len(n))
	for i, c := range n {
		out[i] = c.Clone()
	}
	return out
}

// Equal reports whether two names have identical components in order.
func (n Name) Equal(o Name) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if !n[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// IsPrefix reports whether n is a component-wise prefix of o.
func (n Name) IsPrefix(o Name) bool {
	if len(n) > len(o) {
		return false
	}
	for i := range n {
		if !n[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Compare orders two names component-wise, shorter-is-less on a shared
// prefix; this total order is what the Content Store skiplist maintains.
func (n Name) Compare(o Name) int {
	for i := 0; i < len(n) && i < len(o); i++ {
		if c := n[i].Compare(o[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(n) < len(o):
		return -1
	case len(n) > len(o):
		return 1
	default:
		return 0
	}
}

// Append returns a new Name with the given components appended.
func (n Name) Append(cs ...Component) Name {
	out := make(Name, len(n), len(n)+len(cs))
	copy(out, n)
	return append(out, cs...)
}

// WithDigest returns a new Name with an implicit digest component
// appended, as the Content Store does on insertion.
func (n Name) WithDigest(digest []byte) Name {
	return n.Append(NewDigestComponent(digest))
}
