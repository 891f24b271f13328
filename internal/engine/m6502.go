package engine

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/cpu6502"
)

// m6502Backend decodes MOS 6502 code using the retrogolib opcode table.
type m6502Backend struct{}

func new6502(Mode) backend { return m6502Backend{} }

// operand byte count per addressing mode
var m6502ParamSize = map[cpu6502.AddressingMode]int{
	cpu6502.ImpliedAddressing:     0,
	cpu6502.AccumulatorAddressing: 0,
	cpu6502.ImmediateAddressing:   1,
	cpu6502.ZeroPageAddressing:    1,
	cpu6502.ZeroPageXAddressing:   1,
	cpu6502.ZeroPageYAddressing:   1,
	cpu6502.RelativeAddressing:    1,
	cpu6502.IndirectXAddressing:   1,
	cpu6502.IndirectYAddressing:   1,
	cpu6502.AbsoluteAddressing:    2,
	cpu6502.AbsoluteXAddressing:   2,
	cpu6502.AbsoluteYAddressing:   2,
	cpu6502.IndirectAddressing:    2,
}

func (m6502Backend) decode(src []byte, pc uint64) (Inst, error) {
	if len(src) == 0 {
		return Inst{}, errTruncated
	}
	op := cpu6502.Opcodes[src[0]]
	if op.Instruction == nil {
		return Inst{}, fmt.Errorf("%w: 6502 opcode %02x", errInvalid, src[0])
	}
	n, ok := m6502ParamSize[op.Addressing]
	if !ok {
		return Inst{}, fmt.Errorf("%w: 6502 addressing %d", errInvalid, op.Addressing)
	}
	if len(src) < 1+n {
		return Inst{}, errTruncated
	}

	var b, w uint16
	switch n {
	case 1:
		b = uint16(src[1])
	case 2:
		w = binary.LittleEndian.Uint16(src[1:3])
	}

	var ops string
	switch op.Addressing {
	case cpu6502.AccumulatorAddressing:
		ops = "a"
	case cpu6502.ImmediateAddressing:
		ops = fmt.Sprintf("#$%02x", b)
	case cpu6502.ZeroPageAddressing:
		ops = fmt.Sprintf("$%02x", b)
	case cpu6502.ZeroPageXAddressing:
		ops = fmt.Sprintf("$%02x,x", b)
	case cpu6502.ZeroPageYAddressing:
		ops = fmt.Sprintf("$%02x,y", b)
	case cpu6502.RelativeAddressing:
		target := uint16(pc) + 2 + uint16(int8(b))
		ops = fmt.Sprintf("$%04x", target)
	case cpu6502.IndirectXAddressing:
		ops = fmt.Sprintf("($%02x,x)", b)
	case cpu6502.IndirectYAddressing:
		ops = fmt.Sprintf("($%02x),y", b)
	case cpu6502.AbsoluteAddressing:
		ops = fmt.Sprintf("$%04x", w)
	case cpu6502.AbsoluteXAddressing:
		ops = fmt.Sprintf("$%04x,x", w)
	case cpu6502.AbsoluteYAddressing:
		ops = fmt.Sprintf("$%04x,y", w)
	case cpu6502.IndirectAddressing:
		ops = fmt.Sprintf("($%04x)", w)
	}
	return Inst{
		Size:     1 + n,
		Mnemonic: strings.ToLower(op.Instruction.Name),
		Operands: ops,
	}, nil
}
