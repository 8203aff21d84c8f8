// sigscan looks for the game-load routine in an executable on disk and
// prints where the hook would go and which game object it reads.
//
//	sigscan "C:\Program Files (x86)\Steam\steamapps\common\MegaMan_BattleNetwork_LegacyCollection_Vol1\exe\MMBN_LC1.exe"
package main

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/k2io/chaudhook/gameload"
	"github.com/k2io/chaudhook/internal/symbols"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/arch/x86/x86asm"
)

var (
	disasmFlag int
	allFlag    bool
)

var scanCmd = &cobra.Command{
	Use:          "sigscan [exe]",
	Short:        "Finds the game load routine in a game executable",
	Args:         cobra.ExactArgs(1),
	RunE:         scanCommand,
	SilenceUsage: true,
}

func init() {
	scanCmd.Flags().IntVarP(&disasmFlag, "disasm", "d", 10, "instructions to disassemble from the match")
	scanCmd.Flags().BoolVarP(&allFlag, "all", "a", false, "list every match, not only the first")
}

func main() {
	if err := scanCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func scanCommand(cmd *cobra.Command, args []string) error {
	text, err := symbols.OpenText(args[0])
	if err != nil {
		return err
	}
	data, err := text.Data()
	if err != nil {
		return err
	}
	cmd.Printf("%s: %s at VA %#x, file offset %#x, %#x bytes\n",
		args[0], text.Name, text.VA(), text.Offset, len(data))
	return scan(cmd.OutOrStdout(), data, text.VA(), disasmFlag, allFlag)
}

// scan reports the routine in data, a code section whose first byte is
// loaded at va.
func scan(w io.Writer, data []byte, va uint64, disasm int, all bool) error {
	site, err := gameload.Resolve(data)
	if err != nil {
		return errors.Wrapf(err, "pattern % x", gameload.Pattern)
	}
	start := uintptr(unsafe.Pointer(&data[0]))
	off := int(site.Hit - start)
	fmt.Fprintf(w, "game load at VA %#x (text+%#x)\n", va+uint64(off), off)
	// the displacement may reach outside the section
	fmt.Fprintf(w, "game object pointer at VA %#x\n", va+uint64(site.Resolved-start))
	if err := gameload.CheckMov(data, off); err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
	}

	pc := off
	for i := 0; i < disasm && pc < len(data); i++ {
		inst, err := x86asm.Decode(data[pc:], 64)
		if err != nil {
			fmt.Fprintf(w, "  %#x: % x (bad)\n", va+uint64(pc), data[pc])
			break
		}
		fmt.Fprintf(w, "  %#x: %-24x %s\n", va+uint64(pc), data[pc:pc+inst.Len], x86asm.IntelSyntax(inst, va+uint64(pc), nil))
		pc += inst.Len
	}

	if all {
		n := 0
		for rest := off; ; {
			i, ok := gameload.Scan(data[rest:])
			if !ok {
				break
			}
			n++
			fmt.Fprintf(w, "match %d at VA %#x\n", n, va+uint64(rest+i))
			rest += i + 1
		}
	}
	return nil
}
