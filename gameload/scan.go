// Package gameload finds the game-load routine in the game's code section
// and reports each of its runs, with the emulator state, to observers.
package gameload

import (
	"bytes"
	"sync/atomic"
	"unsafe"

	"github.com/k2io/chaudhook/internal/unaligned"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/arch/x86/x86asm"
)

// Pattern is the prologue of the game-load routine:
//
//	mov [rsp+10h], rbx
//	push rsi
//	sub rsp, 20h
//	mov ebx, ecx
var Pattern = []byte{0x48, 0x89, 0x5c, 0x24, 0x10, 0x56, 0x48, 0x83, 0xec, 0x20, 0x8b, 0xd9}

const (
	// MovOffset is where the RIP-relative mov loading the game object
	// pointer starts, counted from the pattern.
	MovOffset = 0x18
	// movLen is the length of that mov; its disp32 ends the instruction.
	movLen = 7
	// StateOffset is the field of the game object holding the emulator
	// state pointer.
	StateOffset = 0x3f8
)

var (
	// ErrPatternMissing means the code section has no game-load routine
	ErrPatternMissing = errors.New("game load pattern not found")
	// ErrUnexpectedMov means the instruction at MovOffset is not the expected mov
	ErrUnexpectedMov = errors.New("unexpected instruction at mov offset")
)

var logger atomic.Pointer[zap.SugaredLogger]

func init() {
	logger.Store(zap.NewNop().Sugar())
}

// SetLogger replaces the package logger.
func SetLogger(l *zap.SugaredLogger) {
	logger.Store(l)
}

// Site is a located game-load routine.
type Site struct {
	// Hit is the address of the routine.
	Hit uintptr
	// Resolved is the address of the static game object pointer.
	Resolved uintptr
}

// Scan returns the offset of the first match of Pattern in text.
func Scan(text []byte) (int, bool) {
	off := bytes.Index(text, Pattern)
	return off, off >= 0
}

// Resolve locates the routine in text, which must be the code section as
// mapped in memory, and computes the address its mov refers to. A match too
// close to the end of text to hold the mov counts as missing.
func Resolve(text []byte) (Site, error) {
	off, ok := Scan(text)
	if !ok || off+MovOffset+movLen > len(text) {
		return Site{}, ErrPatternMissing
	}
	hit := uintptr(unsafe.Pointer(&text[off]))
	disp := unaligned.Load[int32](hit + MovOffset + 3)
	return Site{
		Hit:      hit,
		Resolved: uintptr(int64(hit) + MovOffset + movLen + int64(disp)),
	}, nil
}

// CheckMov decodes the instruction at MovOffset past the match at off and
// fails unless it is a 7 byte RIP-relative mov.
func CheckMov(text []byte, off int) error {
	start := off + MovOffset
	if off < 0 || start >= len(text) {
		return errors.Wrapf(ErrUnexpectedMov, "offset %#x outside text", start)
	}
	inst, err := x86asm.Decode(text[start:], 64)
	if err != nil {
		return errors.Wrapf(ErrUnexpectedMov, "decode at %#x: %v", start, err)
	}
	if inst.Op != x86asm.MOV || inst.Len != movLen || !hasRIPOperand(inst) {
		return errors.Wrapf(ErrUnexpectedMov, "%s", x86asm.IntelSyntax(inst, uint64(start), nil))
	}
	return nil
}

func hasRIPOperand(inst x86asm.Inst) bool {
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		if mem, ok := a.(x86asm.Mem); ok && mem.Base == x86asm.RIP {
			return true
		}
	}
	return false
}
