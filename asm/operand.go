package asm

// ScaleFactor is the 2-bit SIB scale encoding.
type ScaleFactor byte

const (
	Times1 ScaleFactor = 0
	Times2 ScaleFactor = 1
	Times4 ScaleFactor = 2
	Times8 ScaleFactor = 3
)

// Operand describes one x86 memory addressing mode: an optional base
// register, an optional scaled index register and an optional
// displacement. Constructors validate eagerly; an impossible
// combination is a caller bug and panics.
type Operand struct {
	base  RegisterCode
	index RegisterCode
	scale ScaleFactor
	disp  Displacement
}

// OperandBase is [base].
func OperandBase(base Register) Operand {
	if base.code == RegNone {
		panic("asm: operand requires a base register")
	}
	return Operand{
		base:  base.code,
		index: RegNone,
		scale: Times1,
		disp:  NoDisplacement,
	}
}

// OperandBaseDisp is [base+disp].
func OperandBaseDisp(base Register, disp Displacement) Operand {
	if base.code == RegNone {
		panic("asm: operand requires a base register")
	}
	return Operand{
		base:  base.code,
		index: RegNone,
		scale: Times1,
		disp:  disp,
	}
}

// OperandDisp is the displacement-only form [disp32].
func OperandDisp(disp Displacement) Operand {
	if disp.size == SizeNone {
		panic("asm: displacement-only operand requires a displacement")
	}
	return Operand{
		base:  RegNone,
		index: RegNone,
		scale: Times1,
		disp:  disp,
	}
}

// OperandBaseIndex is [base+index*scale+disp]. The hardware requires a
// base whenever an index is used, and ESP can never be an index.
func OperandBaseIndex(base, index Register, scale ScaleFactor, disp Displacement) Operand {
	if base.code == RegNone {
		panic("asm: indexed operand requires a base register")
	}
	if index.code == RegNone {
		panic("asm: indexed operand requires an index register")
	}
	if index.code == RegESP {
		panic("asm: ESP cannot be used as an index register")
	}
	return Operand{
		base:  base.code,
		index: index.code,
		scale: scale,
		disp:  disp,
	}
}

func (o Operand) Base() RegisterCode         { return o.base }
func (o Operand) Index() RegisterCode        { return o.index }
func (o Operand) Scale() ScaleFactor         { return o.scale }
func (o Operand) Displacement() Displacement { return o.disp }

// isDisplacementOnly reports whether the operand specifies neither a
// base nor an index register.
func isDisplacementOnly(o Operand) bool {
	return o.disp.size != SizeNone && o.base == RegNone && o.index == RegNone
}
