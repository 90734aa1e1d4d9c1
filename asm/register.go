// Package asm encodes 32-bit x86 instructions into exact machine-code
// bytes, tracking where relocatable values were embedded so a later
// linking stage can patch them. It is trusted low-level machinery:
// contract violations (impossible addressing forms, oversized
// instructions) panic rather than return errors.
package asm

// RegisterCode is the 3-bit encoding of a general-purpose register as
// it appears in ModRM and SIB bytes, or RegNone.
type RegisterCode int8

const (
	RegNone RegisterCode = -1

	RegEAX RegisterCode = 0
	RegECX RegisterCode = 1
	RegEDX RegisterCode = 2
	RegEBX RegisterCode = 3
	RegESP RegisterCode = 4
	RegEBP RegisterCode = 5
	RegESI RegisterCode = 6
	RegEDI RegisterCode = 7
)

// Register is an immutable handle to one of the eight 32-bit
// general-purpose registers.
type Register struct {
	code RegisterCode
}

func (r Register) Code() RegisterCode { return r.code }

var (
	// None is the absent-register sentinel. It is never encodable;
	// emitting it is a contract violation.
	None = Register{RegNone}

	EAX = Register{RegEAX}
	ECX = Register{RegECX}
	EDX = Register{RegEDX}
	EBX = Register{RegEBX}
	ESP = Register{RegESP}
	EBP = Register{RegEBP}
	ESI = Register{RegESI}
	EDI = Register{RegEDI}
)
