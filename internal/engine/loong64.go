package engine

import (
	"golang.org/x/arch/loong64/loong64asm"
)

type loong64Backend struct {
	goSyntax bool
}

func newLoong64(m Mode) backend {
	return loong64Backend{goSyntax: m.Has(ModeSyntaxGo)}
}

func (b loong64Backend) decode(src []byte, pc uint64) (Inst, error) {
	inst, err := loong64asm.Decode(src)
	if err != nil {
		return Inst{}, err
	}
	var text string
	if b.goSyntax {
		text = loong64asm.GoSyntax(inst, pc, nil)
	} else {
		text = loong64asm.GNUSyntax(inst)
	}
	mn, ops := splitText(text, nil)
	return Inst{Size: 4, Mnemonic: mn, Operands: ops}, nil
}
