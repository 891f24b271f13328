package engine

import (
	"encoding/binary"
	"fmt"
)

// mipsBackend decodes the MIPS I-IV integer subset plus the common MIPS64
// doubleword forms. There is no MIPS package in x/arch.
type mipsBackend struct {
	order binary.ByteOrder
	is64  bool
}

func newMIPS(m Mode) backend {
	b := mipsBackend{order: binary.LittleEndian, is64: m.Has(Mode64)}
	if m.Has(ModeBigEndian) {
		b.order = binary.BigEndian
	}
	return b
}

var mipsRegs = [32]string{
	"$zero", "$at", "$v0", "$v1", "$a0", "$a1", "$a2", "$a3",
	"$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7",
	"$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7",
	"$t8", "$t9", "$k0", "$k1", "$gp", "$sp", "$fp", "$ra",
}

type mipsFormat uint8

const (
	mipsRdRsRt mipsFormat = iota
	mipsRdRtSa
	mipsRdRtRs
	mipsRsRt
	mipsRs
	mipsRd
	mipsRdRs
	mipsNone
)

type mipsOp struct {
	name   string
	f      mipsFormat
	only64 bool
}

// SPECIAL (opcode 0) function field table.
var mipsSpecial = map[uint32]mipsOp{
	0x00: {"sll", mipsRdRtSa, false},
	0x02: {"srl", mipsRdRtSa, false},
	0x03: {"sra", mipsRdRtSa, false},
	0x04: {"sllv", mipsRdRtRs, false},
	0x06: {"srlv", mipsRdRtRs, false},
	0x07: {"srav", mipsRdRtRs, false},
	0x08: {"jr", mipsRs, false},
	0x09: {"jalr", mipsRdRs, false},
	0x0a: {"movz", mipsRdRsRt, false},
	0x0b: {"movn", mipsRdRsRt, false},
	0x0c: {"syscall", mipsNone, false},
	0x0d: {"break", mipsNone, false},
	0x0f: {"sync", mipsNone, false},
	0x10: {"mfhi", mipsRd, false},
	0x11: {"mthi", mipsRs, false},
	0x12: {"mflo", mipsRd, false},
	0x13: {"mtlo", mipsRs, false},
	0x14: {"dsllv", mipsRdRtRs, true},
	0x16: {"dsrlv", mipsRdRtRs, true},
	0x17: {"dsrav", mipsRdRtRs, true},
	0x18: {"mult", mipsRsRt, false},
	0x19: {"multu", mipsRsRt, false},
	0x1a: {"div", mipsRsRt, false},
	0x1b: {"divu", mipsRsRt, false},
	0x1c: {"dmult", mipsRsRt, true},
	0x1d: {"dmultu", mipsRsRt, true},
	0x1e: {"ddiv", mipsRsRt, true},
	0x1f: {"ddivu", mipsRsRt, true},
	0x20: {"add", mipsRdRsRt, false},
	0x21: {"addu", mipsRdRsRt, false},
	0x22: {"sub", mipsRdRsRt, false},
	0x23: {"subu", mipsRdRsRt, false},
	0x24: {"and", mipsRdRsRt, false},
	0x25: {"or", mipsRdRsRt, false},
	0x26: {"xor", mipsRdRsRt, false},
	0x27: {"nor", mipsRdRsRt, false},
	0x2a: {"slt", mipsRdRsRt, false},
	0x2b: {"sltu", mipsRdRsRt, false},
	0x2c: {"dadd", mipsRdRsRt, true},
	0x2d: {"daddu", mipsRdRsRt, true},
	0x2e: {"dsub", mipsRdRsRt, true},
	0x2f: {"dsubu", mipsRdRsRt, true},
	0x38: {"dsll", mipsRdRtSa, true},
	0x3a: {"dsrl", mipsRdRtSa, true},
	0x3b: {"dsra", mipsRdRtSa, true},
	0x3c: {"dsll32", mipsRdRtSa, true},
	0x3e: {"dsrl32", mipsRdRtSa, true},
	0x3f: {"dsra32", mipsRdRtSa, true},
}

type mipsIKind uint8

const (
	mipsArith    mipsIKind = iota // rt, rs, simm
	mipsLogic                     // rt, rs, uimm
	mipsLoadStor                  // rt, off(rs)
	mipsBranch2                   // rs, rt, target
	mipsBranch1                   // rs, target
	mipsLui                       // rt, uimm
)

type mipsIOp struct {
	name   string
	kind   mipsIKind
	only64 bool
}

var mipsImm = map[uint32]mipsIOp{
	0x04: {"beq", mipsBranch2, false},
	0x05: {"bne", mipsBranch2, false},
	0x06: {"blez", mipsBranch1, false},
	0x07: {"bgtz", mipsBranch1, false},
	0x08: {"addi", mipsArith, false},
	0x09: {"addiu", mipsArith, false},
	0x0a: {"slti", mipsArith, false},
	0x0b: {"sltiu", mipsArith, false},
	0x0c: {"andi", mipsLogic, false},
	0x0d: {"ori", mipsLogic, false},
	0x0e: {"xori", mipsLogic, false},
	0x0f: {"lui", mipsLui, false},
	0x18: {"daddi", mipsArith, true},
	0x19: {"daddiu", mipsArith, true},
	0x1a: {"ldl", mipsLoadStor, true},
	0x1b: {"ldr", mipsLoadStor, true},
	0x20: {"lb", mipsLoadStor, false},
	0x21: {"lh", mipsLoadStor, false},
	0x22: {"lwl", mipsLoadStor, false},
	0x23: {"lw", mipsLoadStor, false},
	0x24: {"lbu", mipsLoadStor, false},
	0x25: {"lhu", mipsLoadStor, false},
	0x26: {"lwr", mipsLoadStor, false},
	0x27: {"lwu", mipsLoadStor, true},
	0x28: {"sb", mipsLoadStor, false},
	0x29: {"sh", mipsLoadStor, false},
	0x2a: {"swl", mipsLoadStor, false},
	0x2b: {"sw", mipsLoadStor, false},
	0x2c: {"sdl", mipsLoadStor, true},
	0x2d: {"sdr", mipsLoadStor, true},
	0x2e: {"swr", mipsLoadStor, false},
	0x30: {"ll", mipsLoadStor, false},
	0x37: {"ld", mipsLoadStor, true},
	0x38: {"sc", mipsLoadStor, false},
	0x3f: {"sd", mipsLoadStor, true},
}

func mipsHex(v int64) string {
	if v < 0 {
		return fmt.Sprintf("-0x%x", -v)
	}
	return fmt.Sprintf("0x%x", v)
}

func (b mipsBackend) decode(src []byte, pc uint64) (Inst, error) {
	if len(src) < 4 {
		return Inst{}, errTruncated
	}
	x := b.order.Uint32(src)
	mn, ops, ok := b.decodeWord(x, pc)
	if !ok {
		return Inst{}, fmt.Errorf("%w: mips %08x", errInvalid, x)
	}
	return Inst{Size: 4, Mnemonic: mn, Operands: ops}, nil
}

func (b mipsBackend) decodeWord(x uint32, pc uint64) (string, string, bool) {
	if x == 0 {
		return "nop", "", true
	}
	opcode := x >> 26
	rs := mipsRegs[(x>>21)&0x1f]
	rt := mipsRegs[(x>>16)&0x1f]
	rd := mipsRegs[(x>>11)&0x1f]
	sa := (x >> 6) & 0x1f
	simm := signExtend(x&0xffff, 16)
	branch := func() string { return mipsHex(int64(pc) + 4 + simm<<2) }

	switch opcode {
	case 0x00:
		op, ok := mipsSpecial[x&0x3f]
		if !ok || (op.only64 && !b.is64) {
			return "", "", false
		}
		switch op.f {
		case mipsRdRsRt:
			return op.name, rd + ", " + rs + ", " + rt, true
		case mipsRdRtSa:
			return op.name, fmt.Sprintf("%s, %s, %s", rd, rt, mipsHex(int64(sa))), true
		case mipsRdRtRs:
			return op.name, rd + ", " + rt + ", " + rs, true
		case mipsRsRt:
			return op.name, rs + ", " + rt, true
		case mipsRs:
			return op.name, rs, true
		case mipsRd:
			return op.name, rd, true
		case mipsRdRs:
			if (x>>11)&0x1f == 31 {
				return op.name, rs, true
			}
			return op.name, rd + ", " + rs, true
		default:
			return op.name, "", true
		}

	case 0x01: // REGIMM
		names := map[uint32]string{0x00: "bltz", 0x01: "bgez", 0x10: "bltzal", 0x11: "bgezal"}
		name, ok := names[(x>>16)&0x1f]
		if !ok {
			return "", "", false
		}
		return name, rs + ", " + branch(), true

	case 0x02, 0x03:
		target := (pc+4)&^0x0fffffff | uint64(x&0x03ffffff)<<2
		name := "j"
		if opcode == 0x03 {
			name = "jal"
		}
		return name, mipsHex(int64(target)), true
	}

	op, ok := mipsImm[opcode]
	if !ok || (op.only64 && !b.is64) {
		return "", "", false
	}
	switch op.kind {
	case mipsArith:
		return op.name, fmt.Sprintf("%s, %s, %d", rt, rs, simm), true
	case mipsLogic:
		return op.name, fmt.Sprintf("%s, %s, 0x%x", rt, rs, x&0xffff), true
	case mipsLoadStor:
		return op.name, fmt.Sprintf("%s, %d(%s)", rt, simm, rs), true
	case mipsBranch2:
		return op.name, rs + ", " + rt + ", " + branch(), true
	case mipsBranch1:
		return op.name, rs + ", " + branch(), true
	case mipsLui:
		return op.name, fmt.Sprintf("%s, 0x%x", rt, x&0xffff), true
	}
	return "", "", false
}
