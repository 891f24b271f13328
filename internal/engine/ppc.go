package engine

import (
	"encoding/binary"

	"golang.org/x/arch/ppc64/ppc64asm"
)

type ppcBackend struct {
	order    binary.ByteOrder
	goSyntax bool
}

func newPPC(m Mode) backend {
	b := ppcBackend{order: binary.LittleEndian, goSyntax: m.Has(ModeSyntaxGo)}
	if m.Has(ModeBigEndian) {
		b.order = binary.BigEndian
	}
	return b
}

func (b ppcBackend) decode(src []byte, pc uint64) (Inst, error) {
	inst, err := ppc64asm.Decode(src, b.order)
	if err != nil {
		return Inst{}, err
	}
	var text string
	if b.goSyntax {
		text = ppc64asm.GoSyntax(inst, pc, nil)
	} else {
		text = ppc64asm.GNUSyntax(inst, pc)
	}
	mn, ops := splitText(text, nil)
	return Inst{Size: inst.Len, Mnemonic: mn, Operands: ops}, nil
}
