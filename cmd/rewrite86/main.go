// rewrite86 is a developer tool around the instruction encoder: it
// disassembles raw hex and emits an annotated demo section. The
// encoder itself is a library; this binary exists for inspection and
// debugging only.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/traceforge/rewrite86/asm"
	"github.com/traceforge/rewrite86/section"
)

func main() {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:   "rewrite86",
		Short: "32-bit x86 instruction encoder tooling",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(verbosity), false)
			log.SetDefault(log.NewLogger(handler))
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 3, "log verbosity (0=crit .. 5=trace)")

	disasmCmd := &cobra.Command{
		Use:   "disasm <hex bytes>",
		Short: "Disassemble hex-encoded 32-bit x86 machine code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleaned := strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(strings.Join(args, ""))
			code, err := hex.DecodeString(cleaned)
			if err != nil {
				return fmt.Errorf("invalid hex input: %w", err)
			}
			fmt.Print(asm.Disassemble(code))
			return nil
		},
	}

	var base uint32
	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Assemble a demo sequence and print bytes, listing and relocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			sec := section.New(base)
			a := asm.NewAssembler(base, sec)

			// A small thunk touching every addressing-mode class,
			// with two relocatable fields.
			a.Push(asm.EBP)
			a.MovRR(asm.EBP, asm.ESP)
			a.MovRM(asm.EAX, asm.OperandDisp(
				asm.NewValueRef(0, asm.Size32Bit, "counter")))
			a.MovRM(asm.ECX, asm.OperandBaseDisp(asm.EBP, asm.NewValue(8, asm.Size8Bit)))
			a.Lea(asm.EDX, asm.OperandBaseIndex(asm.EAX, asm.ECX, asm.Times4,
				asm.NoDisplacement))
			a.MovMI(asm.OperandBase(asm.ESP),
				asm.NewValueRef(0, asm.Size32Bit, "target"))
			a.Pop(asm.EBP)
			a.Ret()

			code := sec.Bytes()
			fmt.Printf("section %#x..%#x (%d bytes)\n", sec.Base(), sec.End(), len(code))
			fmt.Printf("%x\n\n", code)
			fmt.Print(asm.Disassemble(code))
			fmt.Printf("\nrelocations:\n")
			for _, r := range sec.Relocs() {
				fmt.Printf("  %#08x -> %v\n", r.Address, r.Ref)
			}
			return nil
		},
	}
	demoCmd.Flags().Uint32Var(&base, "base", 0x00401000, "virtual address of the first emitted byte")

	rootCmd.AddCommand(disasmCmd, demoCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
