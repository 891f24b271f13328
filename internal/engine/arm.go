package engine

import (
	"golang.org/x/arch/arm/armasm"
	"golang.org/x/arch/arm64/arm64asm"
)

type armBackend struct {
	goSyntax bool
}

func newARM(m Mode) backend {
	if m.Has(ModeThumb) {
		return thumbBackend{}
	}
	return armBackend{goSyntax: m.Has(ModeSyntaxGo)}
}

func (b armBackend) decode(src []byte, pc uint64) (Inst, error) {
	inst, err := armasm.Decode(src, armasm.ModeARM)
	if err != nil {
		return Inst{}, err
	}
	var text string
	if b.goSyntax {
		text = armasm.GoSyntax(inst, pc, nil, nil)
	} else {
		text = armasm.GNUSyntax(inst)
	}
	mn, ops := splitText(text, nil)
	return Inst{Size: inst.Len, Mnemonic: mn, Operands: ops}, nil
}

type arm64Backend struct {
	goSyntax bool
}

func newARM64(m Mode) backend {
	return arm64Backend{goSyntax: m.Has(ModeSyntaxGo)}
}

func (b arm64Backend) decode(src []byte, pc uint64) (Inst, error) {
	if len(src) < 4 {
		return Inst{}, errTruncated
	}
	inst, err := arm64asm.Decode(src[:4])
	if err != nil {
		return Inst{}, err
	}
	var text string
	if b.goSyntax {
		text = arm64asm.GoSyntax(inst, pc, nil, nil)
	} else {
		text = arm64asm.GNUSyntax(inst)
	}
	mn, ops := splitText(text, nil)
	return Inst{Size: 4, Mnemonic: mn, Operands: ops}, nil
}
