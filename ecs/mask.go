package ecs

import (
	"iter"
	"math/bits"
	"strconv"
	"strings"
)

// MaxComponentKinds is the number of distinct component kinds a ComponentMask can hold.
// Raising it means widening ComponentMask.
const MaxComponentKinds = 256

const (
	bitsPerWord = 64
	maskWords   = MaxComponentKinds / bitsPerWord
)

// ComponentKind is the bit position assigned to a component type by a ComponentRegistry.
type ComponentKind uint8

// ComponentMask is a fixed-width set of component kinds.
type ComponentMask [maskWords]uint64

// MaskOf builds a mask with the given kinds set.
func MaskOf(kinds ...ComponentKind) ComponentMask {
	var m ComponentMask
	for _, k := range kinds {
		m.Set(k)
	}
	return m
}

// Set enables the bit for kind.
func (m *ComponentMask) Set(kind ComponentKind) {
	m[kind>>6] |= uint64(1) << (kind & 63)
}

// Unset disables the bit for kind.
func (m *ComponentMask) Unset(kind ComponentKind) {
	m[kind>>6] &^= uint64(1) << (kind & 63)
}

// Reset clears every bit.
func (m *ComponentMask) Reset() {
	*m = ComponentMask{}
}

// Has checks if the bit for kind is set.
func (m ComponentMask) Has(kind ComponentKind) bool {
	return m[kind>>6]&(uint64(1)<<(kind&63)) != 0
}

// Contains checks if every bit set in sub is also set in m.
func (m ComponentMask) Contains(sub ComponentMask) bool {
	return (m[0]&sub[0]) == sub[0] &&
		(m[1]&sub[1]) == sub[1] &&
		(m[2]&sub[2]) == sub[2] &&
		(m[3]&sub[3]) == sub[3]
}

// IsEmpty reports whether no bit is set.
func (m ComponentMask) IsEmpty() bool {
	return m == ComponentMask{}
}

// Count returns the number of set bits.
func (m ComponentMask) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

// Kinds iterates the set bits in ascending order.
func (m ComponentMask) Kinds() iter.Seq[ComponentKind] {
	return func(yield func(ComponentKind) bool) {
		for i, w := range m {
			for w != 0 {
				bit := bits.TrailingZeros64(w)
				w &= w - 1
				if !yield(ComponentKind(i*bitsPerWord + bit)) {
					return
				}
			}
		}
	}
}

func (m ComponentMask) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for k := range m.Kinds() {
		if sb.Len() > 1 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(int(k)))
	}
	sb.WriteByte('}')
	return sb.String()
}
