package face

// ID packs an 18-bit slot number and a 24-bit generation counter, so a
// slot can be recycled only after a complete sweep of
// the slot range bumps the generation — a faceid is never reused without
// at least one full sweep.
type ID uint64

const (
	slotBits = 18
	slotMask = 1<<slotBits - 1
)

// NewID packs a (generation, slot) pair into a face ID.
func NewID(generation uint32, slot int) ID {
	return ID(uint64(generation)<<slotBits | uint64(slot&slotMask))
}

// Slot extracts the 18-bit slot number.
func (id ID) Slot() int { return int(id & slotMask) }

// Generation extracts the 24-bit generation counter.
func (id ID) Generation() uint32 { return uint32(id >> slotBits) }
