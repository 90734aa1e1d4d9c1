// Package section collects the output of an asm.Assembler into one
// contiguous code region with an absolute relocation table, ready for
// a downstream linking stage.
package section

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/traceforge/rewrite86/asm"
)

// Reloc marks an absolute address inside the section whose encoded
// bytes must be patched once Ref is resolved.
type Reloc struct {
	Address uint32
	Ref     asm.Reference
}

// Section is an asm.InstructionSerializer accumulating instructions
// at increasing locations from a fixed base address. Instruction
// bytes are copied on append; buffer-relative reference offsets are
// converted to absolute addresses.
//
// A Section is not safe for concurrent use.
type Section struct {
	base   uint32
	code   []byte
	relocs []Reloc
	logger log.Logger
}

// New returns an empty section whose first byte lives at base.
func New(base uint32) *Section {
	return &Section{
		base:   base,
		logger: log.New("module", "section", "base", fmt.Sprintf("%#x", base)),
	}
}

// AppendInstruction implements asm.InstructionSerializer. Instructions
// must arrive in location order with no gaps; the assembler's location
// counter is the single source of truth for addresses.
func (s *Section) AppendInstruction(location uint32, bytes []byte, refOffsets []int, refs []asm.Reference) {
	if location != s.End() {
		panic(fmt.Sprintf("section: instruction at %#x does not continue section ending at %#x",
			location, s.End()))
	}
	for i := range refs {
		s.relocs = append(s.relocs, Reloc{
			Address: location + uint32(refOffsets[i]),
			Ref:     refs[i],
		})
	}
	s.code = append(s.code, bytes...)

	s.logger.Trace("appended instruction",
		"location", fmt.Sprintf("%#x", location), "len", len(bytes), "refs", len(refs))
}

// Base returns the address of the first byte of the section.
func (s *Section) Base() uint32 { return s.base }

// End returns the address one past the last emitted byte.
func (s *Section) End() uint32 { return s.base + uint32(len(s.code)) }

// Bytes returns the accumulated machine code. The slice is owned by
// the section and remains valid across further appends only up to its
// current length.
func (s *Section) Bytes() []byte { return s.code }

// Relocs returns the relocation table in emission order.
func (s *Section) Relocs() []Reloc { return s.relocs }
