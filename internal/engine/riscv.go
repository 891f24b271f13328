package engine

import (
	"golang.org/x/arch/riscv64/riscv64asm"
)

type riscvBackend struct {
	compressed bool
	goSyntax   bool
}

func newRISCV(m Mode) backend {
	return riscvBackend{
		compressed: m.Has(ModeCompressed),
		goSyntax:   m.Has(ModeSyntaxGo),
	}
}

func (b riscvBackend) decode(src []byte, pc uint64) (Inst, error) {
	if len(src) < 2 {
		return Inst{}, errTruncated
	}
	// Low two bits != 0b11 select a 16-bit RVC encoding.
	if src[0]&3 != 3 && !b.compressed {
		return Inst{}, errUnsupportedInsts
	}
	inst, err := riscv64asm.Decode(src)
	if err != nil {
		return Inst{}, err
	}
	var text string
	if b.goSyntax {
		text = riscv64asm.GoSyntax(inst, pc, nil, nil)
	} else {
		text = riscv64asm.GNUSyntax(inst)
	}
	mn, ops := splitText(text, nil)
	return Inst{Size: inst.Len, Mnemonic: mn, Operands: ops}, nil
}
