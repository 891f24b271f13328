package engine

import (
	"golang.org/x/arch/s390x/s390xasm"
)

type s390xBackend struct {
	goSyntax bool
}

func newS390X(m Mode) backend {
	return s390xBackend{goSyntax: m.Has(ModeSyntaxGo)}
}

// s390xLen returns the instruction length encoded in the top two bits of
// the first byte.
func s390xLen(b byte) int {
	switch b >> 6 {
	case 0:
		return 2
	case 3:
		return 6
	default:
		return 4
	}
}

func (b s390xBackend) decode(src []byte, pc uint64) (Inst, error) {
	if len(src) < 2 || len(src) < s390xLen(src[0]) {
		return Inst{}, errTruncated
	}
	inst, err := s390xasm.Decode(src)
	if err != nil {
		return Inst{}, err
	}
	if inst.Op == 0 {
		return Inst{}, errInvalid
	}
	var text string
	if b.goSyntax {
		text = s390xasm.GoSyntax(inst, pc, nil)
	} else {
		text = s390xasm.GNUSyntax(inst, pc)
	}
	mn, ops := splitText(text, nil)
	return Inst{Size: inst.Len, Mnemonic: mn, Operands: ops}, nil
}
