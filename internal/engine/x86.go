package engine

import (
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

type x86Backend struct {
	bits   int
	syntax func(x86asm.Inst, uint64, x86asm.SymLookup) string
}

func newX86(m Mode) backend {
	b := &x86Backend{bits: 32, syntax: x86asm.IntelSyntax}
	switch {
	case m.Has(Mode16):
		b.bits = 16
	case m.Has(Mode64):
		b.bits = 64
	}
	switch {
	case m.Has(ModeSyntaxATT):
		b.syntax = x86asm.GNUSyntax
	case m.Has(ModeSyntaxGo):
		b.syntax = x86asm.GoSyntax
	}
	return b
}

func (b *x86Backend) decode(src []byte, pc uint64) (Inst, error) {
	inst, err := x86asm.Decode(src, b.bits)
	if err != nil {
		return Inst{}, err
	}
	// x86asm reports unknown opcodes as Op == 0 with a length.
	if inst.Op == 0 {
		return Inst{}, errInvalid
	}
	mn, ops := splitText(b.syntax(inst, pc, nil), x86Prefixes)
	return Inst{Size: inst.Len, Mnemonic: mn, Operands: ops}, nil
}

// Prefix words that belong to the mnemonic rather than the operand string.
var x86Prefixes = map[string]bool{
	"lock": true, "rep": true, "repe": true, "repz": true, "repne": true, "repnz": true,
	"data16": true, "data32": true, "addr16": true, "addr32": true,
	"xacquire": true, "xrelease": true, "bnd": true,
	"cs": true, "ds": true, "es": true, "fs": true, "gs": true, "ss": true,
	"pt": true, "pn": true, "rex": true, "rex.w": true,
}

// splitText separates disassembly text into mnemonic and operands at the
// first whitespace run, keeping any leading prefix words with the mnemonic.
func splitText(text string, prefixes map[string]bool) (mnemonic, operands string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	i := 0
	for i < len(fields)-1 && prefixes[strings.ToLower(fields[i])] {
		i++
	}
	mnemonic = strings.Join(fields[:i+1], " ")
	rest := strings.TrimSpace(text)
	for _, f := range fields[:i+1] {
		rest = strings.TrimSpace(strings.TrimPrefix(rest, f))
	}
	return mnemonic, rest
}
