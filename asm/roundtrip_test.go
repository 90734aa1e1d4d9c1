package asm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

// x86Regs maps our register codes to the reference decoder's 32-bit
// register values.
var x86Regs = map[RegisterCode]x86asm.Reg{
	RegEAX: x86asm.EAX,
	RegECX: x86asm.ECX,
	RegEDX: x86asm.EDX,
	RegEBX: x86asm.EBX,
	RegESP: x86asm.ESP,
	RegEBP: x86asm.EBP,
	RegESI: x86asm.ESI,
	RegEDI: x86asm.EDI,
}

var allRegisters = []Register{EAX, ECX, EDX, EBX, ESP, EBP, ESI, EDI}

// expectedDisp is the displacement the reference decoder should
// report. With a base register the displacement is a signed offset
// and the decoder sign-extends it; without one (mod=00 rm=101, or the
// A1/A3 forms) it is an absolute address and comes back zero-extended.
func expectedDisp(op Operand) int64 {
	d := op.Displacement()
	switch d.Size() {
	case Size8Bit:
		return int64(int8(d.Value()))
	case Size32Bit:
		if op.Base() == RegNone {
			return int64(d.Value())
		}
		return int64(int32(d.Value()))
	}
	return 0
}

// decodeOne decodes exactly one instruction in 32-bit mode and checks
// that it consumes every emitted byte.
func decodeOne(t *testing.T, code []byte) x86asm.Inst {
	t.Helper()
	inst, err := x86asm.Decode(code, 32)
	require.NoError(t, err, "decode %x", code)
	require.Equal(t, len(code), inst.Len, "decode %x consumed %d of %d bytes", code, inst.Len, len(code))
	return inst
}

func requireMem(t *testing.T, arg x86asm.Arg, op Operand) {
	t.Helper()
	m, ok := arg.(x86asm.Mem)
	require.True(t, ok, "expected memory argument, got %v", arg)

	if op.Base() == RegNone {
		require.Equal(t, x86asm.Reg(0), m.Base)
	} else {
		require.Equal(t, x86Regs[op.Base()], m.Base)
	}
	if op.Index() == RegNone {
		require.Equal(t, x86asm.Reg(0), m.Index)
	} else {
		require.Equal(t, x86Regs[op.Index()], m.Index)
		require.Equal(t, uint8(1)<<op.Scale(), m.Scale)
	}
	require.Equal(t, expectedDisp(op), m.Disp)
}

// TestRoundTripMemoryOperands encodes every representable addressing
// form and checks the reference decoder reconstructs the same base,
// index, scale and displacement.
func TestRoundTripMemoryOperands(t *testing.T) {
	var operands []Operand

	operands = append(operands, OperandDisp(NewValue(0xDEADBEEF, Size32Bit)))
	for _, base := range allRegisters {
		operands = append(operands,
			OperandBase(base),
			OperandBaseDisp(base, NewValue(0x18, Size8Bit)),
			OperandBaseDisp(base, NewValue(0xF0, Size8Bit)),
			OperandBaseDisp(base, NewValue(0x11223344, Size32Bit)),
			OperandBaseDisp(base, NewValue(0xFFFFFF00, Size32Bit)),
		)
		for _, index := range []Register{ECX, EBP, EDI} {
			for _, scale := range []ScaleFactor{Times1, Times2, Times4, Times8} {
				for _, disp := range []Displacement{
					NoDisplacement,
					NewValue(0x18, Size8Bit),
					NewValue(0x11223344, Size32Bit),
				} {
					operands = append(operands, OperandBaseIndex(base, index, scale, disp))
				}
			}
		}
	}

	for i, op := range operands {
		op := op
		t.Run(fmt.Sprintf("operand_%03d", i), func(t *testing.T) {
			for _, dst := range []Register{EAX, EBX} {
				ser := assemble(t, func(a *Assembler) { a.MovRM(dst, op) })
				inst := decodeOne(t, ser.instructions[0].bytes)
				require.Equal(t, x86asm.MOV, inst.Op)
				require.Equal(t, x86asm.Arg(x86Regs[dst.Code()]), inst.Args[0])
				requireMem(t, inst.Args[1], op)
			}

			// Store direction swaps the argument order.
			ser := assemble(t, func(a *Assembler) { a.MovMR(op, EDX) })
			inst := decodeOne(t, ser.instructions[0].bytes)
			require.Equal(t, x86asm.MOV, inst.Op)
			requireMem(t, inst.Args[0], op)
			require.Equal(t, x86asm.Arg(x86asm.EDX), inst.Args[1])
		})
	}
}

func TestRoundTripRegisterForms(t *testing.T) {
	for _, dst := range allRegisters {
		for _, src := range allRegisters {
			ser := assemble(t, func(a *Assembler) { a.MovRR(dst, src) })
			inst := decodeOne(t, ser.instructions[0].bytes)
			require.Equal(t, x86asm.MOV, inst.Op)
			require.Equal(t, x86asm.Arg(x86Regs[dst.Code()]), inst.Args[0])
			require.Equal(t, x86asm.Arg(x86Regs[src.Code()]), inst.Args[1])
		}

		ser := assemble(t, func(a *Assembler) {
			a.MovRI(dst, NewValue(0x12345678, Size32Bit))
		})
		inst := decodeOne(t, ser.instructions[0].bytes)
		require.Equal(t, x86asm.MOV, inst.Op)
		require.Equal(t, x86asm.Arg(x86Regs[dst.Code()]), inst.Args[0])
		require.Equal(t, x86asm.Arg(x86asm.Imm(0x12345678)), inst.Args[1])
	}
}

func TestRoundTripLea(t *testing.T) {
	op := OperandBaseIndex(EBX, ESI, Times8, NewValue(0x40, Size8Bit))
	ser := assemble(t, func(a *Assembler) { a.Lea(EDI, op) })
	inst := decodeOne(t, ser.instructions[0].bytes)
	require.Equal(t, x86asm.LEA, inst.Op)
	require.Equal(t, x86asm.Arg(x86asm.EDI), inst.Args[0])
	requireMem(t, inst.Args[1], op)
}
