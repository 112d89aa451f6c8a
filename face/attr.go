package face

import "sync"

// maxBitAttrs is the number of attribute slots packed into a single bit
// word before falling back to per-face unsigned cells.
const maxBitAttrs = 32

// AttrIndex is a compact handle for a registered face attribute name,
// usable as an index into a Face's bit word (if < maxBitAttrs) or its
// cell array otherwise.
type AttrIndex int

// attrRegistry maps attribute names to indices. Registration happens
// once per name and is never cleared; the faceattr strategy (strategy/faceattr.go) is the
// main consumer, registering names like "slow" or "regok" on demand.
type attrRegistry struct {
	mu      sync.Mutex
	byName  map[string]AttrIndex
	names   []string
}

var attrs = &attrRegistry{byName: make(map[string]AttrIndex)}

// RegisterAttr returns the index for name, registering it on first use.
func RegisterAttr(name string) AttrIndex {
	attrs.mu.Lock()
	defer attrs.mu.Unlock()
	if idx, ok := attrs.byName[name]; ok {
		return idx
	}
	idx := AttrIndex(len(attrs.names))
	attrs.byName[name] = idx
	attrs.names = append(attrs.names, name)
	return idx
}

// AttrName returns the name an index was registered under, or "" if the
// index is out of range.
func AttrName(idx AttrIndex) string {
	attrs.mu.Lock()
	defer attrs.mu.Unlock()
	if int(idx) < 0 || int(idx) >= len(attrs.names) {
		return ""
	}
	return attrs.names[idx]
}

// attrCells holds a face's attribute values: a packed bit word for the
// first maxBitAttrs indices, and a sparse cell map beyond that.
type attrCells struct {
	bits  uint32
	cells map[AttrIndex]uint64
}

// GetBit reads a single-bit attribute.
func (c *attrCells) GetBit(idx AttrIndex) bool {
	if int(idx) >= maxBitAttrs {
		return c.GetCell(idx) != 0
	}
	return c.bits&(1<<uint(idx)) != 0
}

// SetBit writes a single-bit attribute.
func (c *attrCells) SetBit(idx AttrIndex, v bool) {
	if int(idx) >= maxBitAttrs {
		if v {
			c.SetCell(idx, 1)
		} else {
			c.SetCell(idx, 0)
		}
		return
	}
	if v {
		c.bits |= 1 << uint(idx)
	} else {
		c.bits &^= 1 << uint(idx)
	}
}

// GetCell reads an unsigned attribute cell, defaulting to zero.
func (c *attrCells) GetCell(idx AttrIndex) uint64 {
	if int(idx) < maxBitAttrs {
		if c.bits&(1<<uint(idx)) != 0 {
			return 1
		}
		return 0
	}
	if c.cells == nil {
		return 0
	}
	return c.cells[idx]
}

// SetCell writes an unsigned attribute cell.
func (c *attrCells) SetCell(idx AttrIndex, v uint64) {
	if int(idx) < maxBitAttrs {
		c.SetBit(idx, v != 0)
		return
	}
	if c.cells == nil {
		c.cells = make(map[AttrIndex]uint64)
	}
	c.cells[idx] = v
}

// NonZero returns every (index, value) pair with a non-zero value, used
// by the faceattr strategy's "print back non-zero attributes" mode.
func (c *attrCells) NonZero() map[AttrIndex]uint64 {
	out := make(map[AttrIndex]uint64)
	for i := 0; i < maxBitAttrs; i++ {
		if c.bits&(1<<uint(i)) != 0 {
			out[AttrIndex(i)] = 1
		}
	}
	for k, v := range c.cells {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}
