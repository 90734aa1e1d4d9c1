package asm

// ValueSize tags how many bytes a displacement or immediate occupies
// in the instruction stream.
type ValueSize int

const (
	SizeNone ValueSize = iota
	Size8Bit
	Size32Bit
)

// Reference is an opaque, non-owning identifier of an external
// relocation target. The encoder stores and forwards references, it
// never inspects them.
type Reference = interface{}

// Value is a sized 32-bit constant, optionally carrying a relocation
// reference. Displacements and immediates share this representation.
type Value struct {
	value uint32
	size  ValueSize
	ref   Reference
}

// Displacement is a constant offset added to a computed address.
type Displacement = Value

// Immediate is a literal constant embedded directly in an instruction.
type Immediate = Value

// NoDisplacement is the absent displacement.
var NoDisplacement = Value{size: SizeNone}

func NewValue(value uint32, size ValueSize) Value {
	return Value{value: value, size: size}
}

// NewValueRef builds a value whose encoded bytes must later be patched
// with the resolved address of ref.
func NewValueRef(value uint32, size ValueSize, ref Reference) Value {
	return Value{value: value, size: size, ref: ref}
}

func (v Value) Value() uint32        { return v.value }
func (v Value) Size() ValueSize      { return v.size }
func (v Value) Reference() Reference { return v.ref }
