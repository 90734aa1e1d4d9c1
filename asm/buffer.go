package asm

// No instruction on x86 can exceed 15 bytes, per specs.
const maxInstructionLength = 15

// maxReferences is the most patchable fields one instruction can
// carry: one displacement and one immediate.
const maxReferences = 2

// ModRM mod field values.
type mod byte

const (
	modIndirect mod = 0 // [reg] or [disp32]
	modByteDisp mod = 1 // [reg+disp8]
	modWordDisp mod = 2 // [reg+disp32]
	modRegister mod = 3 // reg
)

// instructionBuffer accumulates the bytes of a single instruction
// while it is built, together with the offsets of any relocatable
// fields. It lives on the stack for the duration of one operation and
// is never shared.
type instructionBuffer struct {
	buf        [maxInstructionLength]byte
	len        int
	refOffsets [maxReferences]int
	refs       [maxReferences]Reference
	numRefs    int
}

func (b *instructionBuffer) bytes() []byte { return b.buf[:b.len] }

func (b *instructionBuffer) emitByte(by byte) {
	if b.len >= maxInstructionLength {
		panic("asm: instruction exceeds 15 bytes")
	}
	b.buf[b.len] = by
	b.len++
}

func (b *instructionBuffer) emitOpcodeByte(opcode byte) {
	b.emitByte(opcode)
}

func (b *instructionBuffer) emitModRMByte(m mod, reg, rm RegisterCode) {
	if reg == RegNone || rm == RegNone {
		panic("asm: ModRM fields must be valid register codes")
	}
	b.emitByte(byte(m)<<6 | byte(reg)<<3 | byte(rm))
}

func (b *instructionBuffer) emitScaleIndexBase(scale ScaleFactor, index, base RegisterCode) {
	if index == RegNone || base == RegNone {
		panic("asm: SIB fields must be valid register codes")
	}
	b.emitByte(byte(scale)<<6 | byte(index)<<3 | byte(base))
}

// recordReference notes that the bytes about to be written must be
// patched once ref resolves.
func (b *instructionBuffer) recordReference(ref Reference) {
	if b.numRefs >= maxReferences {
		panic("asm: too many references in one instruction")
	}
	b.refOffsets[b.numRefs] = b.len
	b.refs[b.numRefs] = ref
	b.numRefs++
}

func (b *instructionBuffer) emit8BitDisplacement(disp Displacement) {
	if disp.size != Size8Bit {
		panic("asm: displacement is not 8 bit")
	}
	if disp.ref != nil {
		b.recordReference(disp.ref)
	}
	b.emitByte(byte(disp.value))
}

func (b *instructionBuffer) emit32BitDisplacement(disp Displacement) {
	if disp.size != Size32Bit {
		panic("asm: displacement is not 32 bit")
	}
	if disp.ref != nil {
		b.recordReference(disp.ref)
	}
	v := disp.value
	b.emitByte(byte(v))
	b.emitByte(byte(v >> 8))
	b.emitByte(byte(v >> 16))
	b.emitByte(byte(v >> 24))
}
