// Copyright (C) 2022 K2 Cyber Security Inc.
/*
Detours on amd64

A detour is installed by rewriting the first instructions of the target so
they jump to a hook, and by building a trampoline that lets the hook reach
the original code.

TARGET FUNCTION
 - The first N bytes (whole instructions, N >= 12) are replaced with
   MOV RAX, hook; JMP RAX. RAX is volatile and carries no argument under
   the Win64 calling convention, so clobbering it on entry is safe.

HOOK
 - Native entry point of the interception body. It receives the target's
   arguments untouched and may call the trampoline.

TRAMPOLINE
 - The N displaced bytes, with rel32 and RIP-relative disp32 operands
   re-pointed at their original targets.
 - JMP [RIP+0] back to target+N. The indirect form clobbers no register,
   which matters because the copied prologue may have loaded RAX.
*/

package detour

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/arch/x86/x86asm"
)

const (
	// bytes read from the target when decoding its prologue
	maxPrologue = 32
	// length of jumpTo
	patchLen = 12
)

func jumpTo(addr uintptr) []byte {
	return []byte{
		0x48, 0xb8, // MOV RAX, addr
		byte(addr), byte(addr >> 8), // .
		byte(addr >> 16), byte(addr >> 24), // .
		byte(addr >> 32), byte(addr >> 40), // .
		byte(addr >> 48), byte(addr >> 56), // .
		0xff, 0xe0, // JMP RAX
	}
}

func jumpBack(addr uintptr) []byte {
	return []byte{
		0xff, 0x25, 0x00, 0x00, 0x00, 0x00, // JMP [RIP+0]
		byte(addr), byte(addr >> 8), // .
		byte(addr >> 16), byte(addr >> 24), // .
		byte(addr >> 32), byte(addr >> 40), // .
		byte(addr >> 48), byte(addr >> 56), // .
	}
}

// buildTrampoline copies whole instructions from src (the code at from)
// until at least patchLen bytes are covered, relocating them to run at to,
// and appends the jump back. It returns the code and the number of
// displaced bytes.
func buildTrampoline(src []byte, from, to uintptr) ([]byte, int, error) {
	var out []byte
	n := 0
	for n < patchLen {
		inst, err := x86asm.Decode(src[n:], 64)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "decode prologue at +%#x", n)
		}
		if isDebug.Load() {
			logger.Load().Debugf("prologue +%#x: %s (len %d)", n, x86asm.IntelSyntax(inst, uint64(from)+uint64(n), nil), inst.Len)
		}
		code := append([]byte(nil), src[n:n+inst.Len]...)
		if err := relocate(code, inst, from+uintptr(n), to+uintptr(n)); err != nil {
			return nil, 0, errors.Wrapf(err, "relocate %s at +%#x", inst.Op, n)
		}
		out = append(out, code...)
		n += inst.Len
		if n < patchLen && endsFlow(inst) {
			return nil, 0, ErrPatchTooShort
		}
	}
	out = append(out, jumpBack(from+uintptr(n))...)
	return out, n, nil
}

func endsFlow(inst x86asm.Inst) bool {
	switch inst.Op {
	case x86asm.RET, x86asm.JMP, x86asm.INT, x86asm.UD2:
		return true
	}
	return false
}

// relocate rewrites the PC-relative field of code, an instruction decoded
// at oldPC, so that it reaches the same address when executed at newPC.
func relocate(code []byte, inst x86asm.Inst, oldPC, newPC uintptr) error {
	size, off := inst.PCRel, inst.PCRelOff
	if size == 0 {
		// the decoder marks every RIP-relative operand it understands
		if hasRIPOperand(inst) {
			return ErrRelativeAddr
		}
		return nil
	}
	if size != 4 {
		return ErrRelativeAddr
	}
	disp := int64(int32(binary.LittleEndian.Uint32(code[off:])))
	abs := int64(oldPC) + int64(inst.Len) + disp
	rel := abs - (int64(newPC) + int64(inst.Len))
	if rel < math.MinInt32 || rel > math.MaxInt32 {
		return errors.Wrapf(ErrRelativeAddr, "%#x out of rel32 range from %#x", abs, newPC)
	}
	binary.LittleEndian.PutUint32(code[off:], uint32(int32(rel)))
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
