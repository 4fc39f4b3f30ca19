package permission

// RootBit is the highest bit of a Mask64. A mask with the root bit set holds every
// capability.
const RootBit = 63

// Mask64 is a set of up to 63 capability bits plus the root bit.
type Mask64 uint64

// Has reports whether bit is set, or the mask carries the root bit.
func (m Mask64) Has(bit int) bool {
	if bit < 0 || bit > RootBit {
		return false
	}
	if m.IsRoot() {
		return true
	}
	return m&(1<<uint(bit)) != 0
}

// IsRoot reports whether the root bit is set.
func (m Mask64) IsRoot() bool {
	return m&(1<<RootBit) != 0
}

// With returns m with bit set. Out-of-range bits are ignored.
func (m Mask64) With(bit int) Mask64 {
	if bit < 0 || bit > RootBit {
		return m
	}
	return m | 1<<uint(bit)
}

// Without returns m with bit cleared.
func (m Mask64) Without(bit int) Mask64 {
	if bit < 0 || bit > RootBit {
		return m
	}
	return m &^ (1 << uint(bit))
}

// Raw returns the underlying bits.
func (m Mask64) Raw() uint64 {
	return uint64(m)
}
