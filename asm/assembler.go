package asm

// InstructionSerializer consumes completed instructions. bytes is
// backed by a stack-transient buffer and must not be retained beyond
// the call. refOffsets/refs carry 0-2 (byte offset, relocation
// target) pairs for fields that need patching by a later linking
// stage.
type InstructionSerializer interface {
	AppendInstruction(location uint32, bytes []byte, refOffsets []int, refs []Reference)
}

// Assembler emits 32-bit x86 instructions to a serializer, advancing
// a location counter by the length of each emitted instruction.
// An Assembler must not be shared across goroutines without external
// synchronization.
type Assembler struct {
	location   uint32
	serializer InstructionSerializer
}

// NewAssembler returns an assembler whose first emitted byte is
// assumed to live at location.
func NewAssembler(location uint32, serializer InstructionSerializer) *Assembler {
	if serializer == nil {
		panic("asm: nil serializer")
	}
	return &Assembler{location: location, serializer: serializer}
}

// Location returns the address of the next instruction to be emitted.
func (a *Assembler) Location() uint32 { return a.location }

// MovRR emits mov dst, src for two registers.
func (a *Assembler) MovRR(dst, src Register) {
	var instr instructionBuffer

	instr.emitOpcodeByte(0x8B)
	instr.emitModRMByte(modRegister, dst.code, src.code)

	a.output(&instr)
}

// MovRM emits mov dst, [src].
func (a *Assembler) MovRM(dst Register, src Operand) {
	var instr instructionBuffer

	if dst.code == RegEAX && isDisplacementOnly(src) {
		// Shorter encoding for displacement-only loads into EAX.
		instr.emitOpcodeByte(0xA1)
		instr.emit32BitDisplacement(src.disp)
	} else {
		instr.emitOpcodeByte(0x8B)
		encodeOperands(dst.code, src, &instr)
	}

	a.output(&instr)
}

// MovMR emits mov [dst], src.
func (a *Assembler) MovMR(dst Operand, src Register) {
	var instr instructionBuffer

	if src.code == RegEAX && isDisplacementOnly(dst) {
		// Shorter encoding for displacement-only stores from EAX.
		instr.emitOpcodeByte(0xA3)
		instr.emit32BitDisplacement(dst.disp)
	} else {
		instr.emitOpcodeByte(0x89)
		encodeOperands(src.code, dst, &instr)
	}

	a.output(&instr)
}

// MovRI emits mov dst, imm32.
func (a *Assembler) MovRI(dst Register, src Immediate) {
	if dst.code == RegNone {
		panic("asm: mov requires a destination register")
	}
	if src.size == SizeNone {
		panic("asm: immediate requires a size")
	}
	var instr instructionBuffer

	instr.emitOpcodeByte(0xB8 | byte(dst.code))
	instr.emit32BitDisplacement(src)

	a.output(&instr)
}

// MovMI emits mov dword ptr [dst], imm32. The instruction can carry
// two references: one in the displacement, one in the immediate.
func (a *Assembler) MovMI(dst Operand, src Immediate) {
	if src.size == SizeNone {
		panic("asm: immediate requires a size")
	}
	var instr instructionBuffer

	instr.emitOpcodeByte(0xC7)
	encodeOperands(0, dst, &instr)
	instr.emit32BitDisplacement(src)

	a.output(&instr)
}

// Lea emits lea dst, [src].
func (a *Assembler) Lea(dst Register, src Operand) {
	var instr instructionBuffer

	instr.emitOpcodeByte(0x8D)
	encodeOperands(dst.code, src, &instr)

	a.output(&instr)
}

// Push emits push src using the short register form.
func (a *Assembler) Push(src Register) {
	if src.code == RegNone {
		panic("asm: push requires a register")
	}
	var instr instructionBuffer
	instr.emitOpcodeByte(0x50 | byte(src.code))
	a.output(&instr)
}

// PushM emits push dword ptr [src].
func (a *Assembler) PushM(src Operand) {
	var instr instructionBuffer

	instr.emitOpcodeByte(0xFF)
	encodeOperands(6, src, &instr)

	a.output(&instr)
}

// PushI emits push imm32.
func (a *Assembler) PushI(src Immediate) {
	if src.size == SizeNone {
		panic("asm: immediate requires a size")
	}
	var instr instructionBuffer

	instr.emitOpcodeByte(0x68)
	instr.emit32BitDisplacement(src)

	a.output(&instr)
}

// Pop emits pop dst using the short register form.
func (a *Assembler) Pop(dst Register) {
	if dst.code == RegNone {
		panic("asm: pop requires a register")
	}
	var instr instructionBuffer
	instr.emitOpcodeByte(0x58 | byte(dst.code))
	a.output(&instr)
}

// PopM emits pop dword ptr [dst].
func (a *Assembler) PopM(dst Operand) {
	var instr instructionBuffer

	instr.emitOpcodeByte(0x8F)
	encodeOperands(0, dst, &instr)

	a.output(&instr)
}

// CallM emits call dword ptr [target].
func (a *Assembler) CallM(target Operand) {
	var instr instructionBuffer

	instr.emitOpcodeByte(0xFF)
	encodeOperands(2, target, &instr)

	a.output(&instr)
}

// JmpM emits jmp dword ptr [target].
func (a *Assembler) JmpM(target Operand) {
	var instr instructionBuffer

	instr.emitOpcodeByte(0xFF)
	encodeOperands(4, target, &instr)

	a.output(&instr)
}

// Ret emits a near return.
func (a *Assembler) Ret() {
	var instr instructionBuffer
	instr.emitOpcodeByte(0xC3)
	a.output(&instr)
}

// Nop emits a one-byte nop.
func (a *Assembler) Nop() {
	var instr instructionBuffer
	instr.emitOpcodeByte(0x90)
	a.output(&instr)
}

// output flushes a completed instruction to the serializer in one
// shot and advances the location counter.
func (a *Assembler) output(instr *instructionBuffer) {
	a.serializer.AppendInstruction(a.location,
		instr.bytes(),
		instr.refOffsets[:instr.numRefs],
		instr.refs[:instr.numRefs])

	a.location += uint32(instr.len)
}

// encodeOperands emits the ModRM byte, the SIB byte and the
// displacement bytes for a memory operand. reg is the 3-bit ModRM reg
// field: a destination/source register code, or an opcode extension
// digit for /digit opcodes.
//
// The operand can describe [base], [disp32], [base+disp8/32],
// [base+index*scale] and [base+index*scale+disp8/32]. Two register
// codes are overloaded by the hardware and force the case analysis
// below: rm=ESP in any indirect mod selects a SIB byte instead of
// [ESP], and rm=EBP in mod=00 means [disp32] with no base instead of
// [EBP].
func encodeOperands(reg RegisterCode, op Operand, instr *instructionBuffer) {
	// ESP can never be used as an index register on x86.
	if op.index == RegESP {
		panic("asm: ESP cannot be used as an index register")
	}

	if op.index == RegNone {
		if op.scale != Times1 {
			panic("asm: scale requires an index register")
		}

		if op.base == RegNone {
			// Displacement only: encoded through the EBP overload
			// in mod=00.
			instr.emitModRMByte(modIndirect, reg, RegEBP)
			instr.emit32BitDisplacement(op.disp)
			return
		}

		if op.base == RegESP {
			// [ESP] and [ESP+disp] cannot be encoded without a SIB
			// byte. index=ESP in the SIB means no index.
			switch op.disp.size {
			case SizeNone:
				instr.emitModRMByte(modIndirect, reg, RegESP)
				instr.emitScaleIndexBase(Times1, RegESP, RegESP)
			case Size8Bit:
				instr.emitModRMByte(modByteDisp, reg, RegESP)
				instr.emitScaleIndexBase(Times1, RegESP, RegESP)
				instr.emit8BitDisplacement(op.disp)
			case Size32Bit:
				instr.emitModRMByte(modWordDisp, reg, RegESP)
				instr.emitScaleIndexBase(Times1, RegESP, RegESP)
				instr.emit32BitDisplacement(op.disp)
			}
			return
		}

		switch op.disp.size {
		case SizeNone:
			if op.base == RegEBP {
				// [EBP] has no mod=00 form, there always must be a
				// (zero) displacement.
				instr.emitModRMByte(modByteDisp, reg, RegEBP)
				instr.emit8BitDisplacement(NewValue(0, Size8Bit))
			} else {
				instr.emitModRMByte(modIndirect, reg, op.base)
			}
		case Size8Bit:
			instr.emitModRMByte(modByteDisp, reg, op.base)
			instr.emit8BitDisplacement(op.disp)
		case Size32Bit:
			instr.emitModRMByte(modWordDisp, reg, op.base)
			instr.emit32BitDisplacement(op.disp)
		}
		return
	}

	// SIB form. The hardware requires a base whenever an index is
	// used, and rm=ESP in the ModRM byte signals that a SIB follows.
	if op.base == RegNone {
		panic("asm: indexed operand requires a base register")
	}

	switch op.disp.size {
	case SizeNone:
		if op.base == RegEBP {
			// SIB base=EBP in mod=00 is overloaded to mean "no
			// base, disp32 follows"; [EBP+index*scale] needs the
			// same zero-displacement fix as bare [EBP].
			instr.emitModRMByte(modByteDisp, reg, RegESP)
			instr.emitScaleIndexBase(op.scale, op.index, op.base)
			instr.emit8BitDisplacement(NewValue(0, Size8Bit))
		} else {
			instr.emitModRMByte(modIndirect, reg, RegESP)
			instr.emitScaleIndexBase(op.scale, op.index, op.base)
		}
	case Size8Bit:
		instr.emitModRMByte(modByteDisp, reg, RegESP)
		instr.emitScaleIndexBase(op.scale, op.index, op.base)
		instr.emit8BitDisplacement(op.disp)
	case Size32Bit:
		instr.emitModRMByte(modWordDisp, reg, RegESP)
		instr.emitScaleIndexBase(op.scale, op.index, op.base)
		instr.emit32BitDisplacement(op.disp)
	}
}
