package engine

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// thumbBackend decodes Thumb (16-bit) and the common Thumb-2 32-bit forms.
// x/arch's armasm only handles ARM state, so this table is local.
type thumbBackend struct{}

var armRegs = [16]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc",
}

var armConds = [16]string{
	"eq", "ne", "hs", "lo", "mi", "pl", "vs", "vc",
	"hi", "ls", "ge", "lt", "gt", "le", "", "",
}

func armImm(v uint32) string {
	if v < 10 {
		return fmt.Sprintf("#%d", v)
	}
	return fmt.Sprintf("#0x%x", v)
}

func armTarget(v uint64) string { return fmt.Sprintf("#0x%x", v) }

// regList renders a register bitmask as "{r0, r4, lr}".
func regList(mask uint32) string {
	var regs []string
	for i := 0; i < 16; i++ {
		if mask&(1<<i) != 0 {
			regs = append(regs, armRegs[i])
		}
	}
	return "{" + strings.Join(regs, ", ") + "}"
}

func signExtend(v uint32, bits uint) int64 {
	shift := 32 - bits
	return int64(int32(v<<shift) >> shift)
}

func (thumbBackend) decode(src []byte, pc uint64) (Inst, error) {
	if len(src) < 2 {
		return Inst{}, errTruncated
	}
	hw1 := uint32(binary.LittleEndian.Uint16(src))
	if hw1>>11 >= 0x1d {
		if len(src) < 4 {
			return Inst{}, errTruncated
		}
		hw2 := uint32(binary.LittleEndian.Uint16(src[2:]))
		mn, ops, ok := decodeThumb32(hw1, hw2, pc)
		if !ok {
			return Inst{}, fmt.Errorf("%w: thumb2 %04x %04x", errInvalid, hw1, hw2)
		}
		return Inst{Size: 4, Mnemonic: mn, Operands: ops}, nil
	}
	mn, ops, ok := decodeThumb16(hw1, pc)
	if !ok {
		return Inst{}, fmt.Errorf("%w: thumb %04x", errInvalid, hw1)
	}
	return Inst{Size: 2, Mnemonic: mn, Operands: ops}, nil
}

func decodeThumb16(x uint32, pc uint64) (string, string, bool) {
	r := func(shift uint) string { return armRegs[(x>>shift)&7] }

	switch {
	case x>>11 == 0x3: // add/sub register or imm3
		op := "adds"
		if x&(1<<9) != 0 {
			op = "subs"
		}
		if x&(1<<10) != 0 {
			return op, fmt.Sprintf("%s, %s, %s", r(0), r(3), armImm((x>>6)&7)), true
		}
		return op, fmt.Sprintf("%s, %s, %s", r(0), r(3), r(6)), true

	case x>>13 == 0: // shift by immediate
		ops := [...]string{"lsls", "lsrs", "asrs"}
		imm := (x >> 6) & 0x1f
		if x>>11 == 0 && imm == 0 {
			return "movs", fmt.Sprintf("%s, %s", r(0), r(3)), true
		}
		if x>>11 != 0 && imm == 0 {
			imm = 32
		}
		return ops[x>>11], fmt.Sprintf("%s, %s, %s", r(0), r(3), armImm(imm)), true

	case x>>13 == 1: // mov/cmp/add/sub imm8
		ops := [...]string{"movs", "cmp", "adds", "subs"}
		return ops[(x>>11)&3], fmt.Sprintf("%s, %s", r(8), armImm(x&0xff)), true

	case x>>10 == 0x10: // data processing
		op := (x >> 6) & 0xf
		names := [...]string{"ands", "eors", "lsls", "lsrs", "asrs", "adcs", "sbcs", "rors",
			"tst", "rsbs", "cmp", "cmn", "orrs", "muls", "bics", "mvns"}
		if op == 9 {
			return names[op], fmt.Sprintf("%s, %s, #0", r(0), r(3)), true
		}
		if op == 13 {
			return names[op], fmt.Sprintf("%s, %s, %s", r(0), r(3), r(0)), true
		}
		return names[op], fmt.Sprintf("%s, %s", r(0), r(3)), true

	case x>>10 == 0x11: // high register ops / branch exchange
		rm := armRegs[(x>>3)&0xf]
		rd := armRegs[(x&7)|(x>>4)&8]
		switch (x >> 8) & 3 {
		case 0:
			return "add", rd + ", " + rm, true
		case 1:
			return "cmp", rd + ", " + rm, true
		case 2:
			return "mov", rd + ", " + rm, true
		default:
			if x&(1<<7) != 0 {
				return "blx", rm, true
			}
			return "bx", rm, true
		}

	case x>>11 == 0x9: // ldr literal
		return "ldr", fmt.Sprintf("%s, [pc, %s]", r(8), armImm((x&0xff)*4)), true

	case x>>12 == 0x5: // load/store register offset
		names := [...]string{"str", "strh", "strb", "ldrsb", "ldr", "ldrh", "ldrb", "ldrsh"}
		return names[(x>>9)&7], fmt.Sprintf("%s, [%s, %s]", r(0), r(3), r(6)), true

	case x>>13 == 0x3: // load/store word/byte immediate
		imm := (x >> 6) & 0x1f
		var name string
		switch (x >> 11) & 3 {
		case 0:
			name, imm = "str", imm*4
		case 1:
			name, imm = "ldr", imm*4
		case 2:
			name = "strb"
		case 3:
			name = "ldrb"
		}
		return name, fmt.Sprintf("%s, [%s, %s]", r(0), r(3), armImm(imm)), true

	case x>>12 == 0x8: // load/store halfword immediate
		name := "strh"
		if x&(1<<11) != 0 {
			name = "ldrh"
		}
		return name, fmt.Sprintf("%s, [%s, %s]", r(0), r(3), armImm(((x>>6)&0x1f)*2)), true

	case x>>12 == 0x9: // sp-relative load/store
		name := "str"
		if x&(1<<11) != 0 {
			name = "ldr"
		}
		return name, fmt.Sprintf("%s, [sp, %s]", r(8), armImm((x&0xff)*4)), true

	case x>>12 == 0xa: // adr / add rd, sp
		if x&(1<<11) != 0 {
			return "add", fmt.Sprintf("%s, sp, %s", r(8), armImm((x&0xff)*4)), true
		}
		return "adr", fmt.Sprintf("%s, %s", r(8), armImm((x&0xff)*4)), true

	case x>>12 == 0xb:
		return decodeThumbMisc(x, pc)

	case x>>12 == 0xc: // ldm/stm
		rn := (x >> 8) & 7
		list := x & 0xff
		if x&(1<<11) != 0 {
			wb := "!"
			if list&(1<<rn) != 0 {
				wb = ""
			}
			return "ldm", fmt.Sprintf("%s%s, %s", armRegs[rn], wb, regList(list)), true
		}
		return "stm", fmt.Sprintf("%s!, %s", armRegs[rn], regList(list)), true

	case x>>12 == 0xd: // conditional branch, udf, svc
		cond := (x >> 8) & 0xf
		switch cond {
		case 0xe:
			return "udf", armImm(x & 0xff), true
		case 0xf:
			return "svc", armImm(x & 0xff), true
		}
		off := signExtend(x&0xff, 8) << 1
		return "b" + armConds[cond], armTarget(uint64(int64(pc) + 4 + off)), true

	case x>>11 == 0x1c: // unconditional branch
		off := signExtend(x&0x7ff, 11) << 1
		return "b", armTarget(uint64(int64(pc) + 4 + off)), true
	}
	return "", "", false
}

func decodeThumbMisc(x uint32, pc uint64) (string, string, bool) {
	switch {
	case x>>7 == 0x160: // add sp, #imm
		return "add", "sp, " + armImm((x&0x7f)*4), true
	case x>>7 == 0x161: // sub sp, #imm
		return "sub", "sp, " + armImm((x&0x7f)*4), true
	case x>>8 == 0xb2: // extend
		names := [...]string{"sxth", "sxtb", "uxth", "uxtb"}
		return names[(x>>6)&3], armRegs[x&7] + ", " + armRegs[(x>>3)&7], true
	case x&0xf500 == 0xb100: // cbz/cbnz
		name := "cbz"
		if x&(1<<11) != 0 {
			name = "cbnz"
		}
		off := uint64(((x>>9)&1)<<6 | ((x>>3)&0x1f)<<1)
		return name, fmt.Sprintf("%s, %s", armRegs[x&7], armTarget(pc+4+off)), true
	case x&0xfe00 == 0xb400: // push
		list := x & 0xff
		if x&(1<<8) != 0 {
			list |= 1 << 14
		}
		return "push", regList(list), true
	case x&0xfe00 == 0xbc00: // pop
		list := x & 0xff
		if x&(1<<8) != 0 {
			list |= 1 << 15
		}
		return "pop", regList(list), true
	case x>>8 == 0xba: // byte reverse
		names := [...]string{"rev", "rev16", "", "revsh"}
		name := names[(x>>6)&3]
		if name == "" {
			return "", "", false
		}
		return name, armRegs[x&7] + ", " + armRegs[(x>>3)&7], true
	case x>>8 == 0xbe:
		return "bkpt", armImm(x & 0xff), true
	case x>>8 == 0xbf:
		if x&0xf != 0 {
			pat, cond := itPattern(x)
			return "it" + pat, cond, true
		}
		hints := [...]string{"nop", "yield", "wfe", "wfi", "sev"}
		if h := (x >> 4) & 0xf; int(h) < len(hints) {
			return hints[h], "", true
		}
	case x&0xffe8 == 0xb660: // cps
		name := "cpsie"
		if x&(1<<4) != 0 {
			name = "cpsid"
		}
		flags := ""
		for i, f := range "fia" {
			if x&(1<<i) != 0 {
				flags = string(f) + flags
			}
		}
		return name, flags, true
	}
	return "", "", false
}

// itPattern returns the then/else letters and the first condition of an IT
// instruction.
func itPattern(x uint32) (string, string) {
	first := (x >> 4) & 0xf
	mask := x & 0xf
	// the lowest set bit of mask terminates the pattern
	n := 0
	for i := 0; i < 4; i++ {
		if mask&(1<<i) != 0 {
			n = 3 - i
			break
		}
	}
	var pat strings.Builder
	for i := 0; i < n; i++ {
		if (mask>>(3-i))&1 == first&1 {
			pat.WriteByte('t')
		} else {
			pat.WriteByte('e')
		}
	}
	return pat.String(), armConds[first]
}

// thumbExpandImm implements the Thumb-2 modified immediate encoding.
func thumbExpandImm(imm12 uint32) uint32 {
	if imm12>>10 == 0 {
		v := imm12 & 0xff
		switch (imm12 >> 8) & 3 {
		case 0:
			return v
		case 1:
			return v<<16 | v
		case 2:
			return v<<24 | v<<8
		default:
			return v<<24 | v<<16 | v<<8 | v
		}
	}
	v := 0x80 | imm12&0x7f
	rot := imm12 >> 7
	return v>>rot | v<<(32-rot)
}

func decodeThumb32(hw1, hw2 uint32, pc uint64) (string, string, bool) {
	switch {
	case hw1>>11 == 0x1e && hw2&0x8000 != 0: // branches
		s := (hw1 >> 10) & 1
		j1 := (hw2 >> 13) & 1
		j2 := (hw2 >> 11) & 1
		if hw2&(1<<12) == 0 && hw2&(1<<14) == 0 {
			// conditional b<c>.w
			cond := (hw1 >> 6) & 0xf
			if cond >= 0xe {
				return "", "", false
			}
			imm := s<<20 | j2<<19 | j1<<18 | (hw1&0x3f)<<12 | (hw2&0x7ff)<<1
			off := signExtend(imm, 21)
			return "b" + armConds[cond] + ".w", armTarget(uint64(int64(pc) + 4 + off)), true
		}
		i1 := ^(j1 ^ s) & 1
		i2 := ^(j2 ^ s) & 1
		imm := s<<24 | i1<<23 | i2<<22 | (hw1&0x3ff)<<12 | (hw2&0x7ff)<<1
		off := signExtend(imm, 25)
		target := uint64(int64(pc) + 4 + off)
		switch {
		case hw2&(1<<14) != 0 && hw2&(1<<12) != 0:
			return "bl", armTarget(target), true
		case hw2&(1<<14) != 0:
			return "blx", armTarget(target &^ 3), true
		default:
			return "b.w", armTarget(target), true
		}

	case hw1>>11 == 0x1e && hw1&(1<<9) == 0 && hw2&0x8000 == 0: // data processing, modified immediate
		op := (hw1 >> 5) & 0xf
		setFlags := hw1&(1<<4) != 0
		rn := hw1 & 0xf
		rd := (hw2 >> 8) & 0xf
		imm := thumbExpandImm((hw1>>10)&1<<11 | (hw2>>12)&7<<8 | hw2&0xff)
		sfx := ""
		if setFlags {
			sfx = "s"
		}
		two := func(name string) (string, string, bool) {
			return name + sfx + ".w", fmt.Sprintf("%s, %s", armRegs[rd], armImm(imm)), true
		}
		three := func(name string) (string, string, bool) {
			return name + sfx + ".w", fmt.Sprintf("%s, %s, %s", armRegs[rd], armRegs[rn], armImm(imm)), true
		}
		test := func(name string) (string, string, bool) {
			return name + ".w", fmt.Sprintf("%s, %s", armRegs[rn], armImm(imm)), true
		}
		switch op {
		case 0x0:
			if rd == 15 && setFlags {
				return test("tst")
			}
			return three("and")
		case 0x1:
			return three("bic")
		case 0x2:
			if rn == 15 {
				return two("mov")
			}
			return three("orr")
		case 0x3:
			if rn == 15 {
				return two("mvn")
			}
			return three("orn")
		case 0x4:
			if rd == 15 && setFlags {
				return test("teq")
			}
			return three("eor")
		case 0x8:
			if rd == 15 && setFlags {
				return test("cmn")
			}
			return three("add")
		case 0xa:
			return three("adc")
		case 0xb:
			return three("sbc")
		case 0xd:
			if rd == 15 && setFlags {
				return test("cmp")
			}
			return three("sub")
		case 0xe:
			return three("rsb")
		}

	case hw1&0xffe0 == 0xe8c0 && hw1&0x10 != 0 && hw2&0xffe0 == 0xf000: // tbb/tbh
		rn := armRegs[hw1&0xf]
		rm := armRegs[hw2&0xf]
		if hw2&(1<<4) != 0 {
			return "tbh", fmt.Sprintf("[%s, %s, lsl #1]", rn, rm), true
		}
		return "tbb", fmt.Sprintf("[%s, %s]", rn, rm), true

	case hw1&0xfe40 == 0xe800 && hw1&0x0180 != 0 && hw1&0x0180 != 0x0180: // ldm/stm
		rn := hw1 & 0xf
		wback := hw1&(1<<5) != 0
		load := hw1&(1<<4) != 0
		db := hw1&(1<<8) != 0
		list := hw2
		switch {
		case load && !db && wback && rn == 13:
			return "pop.w", regList(list), true
		case !load && db && wback && rn == 13:
			return "push.w", regList(list), true
		}
		name := "stm"
		if load {
			name = "ldm"
		}
		if db {
			name += "db"
		}
		wb := ""
		if wback {
			wb = "!"
		}
		return name + ".w", fmt.Sprintf("%s%s, %s", armRegs[rn], wb, regList(list)), true

	case hw1&0xfff0 == 0xf8d0 || hw1&0xfff0 == 0xf8c0: // ldr.w/str.w imm12
		name := "str.w"
		if hw1&(1<<4) != 0 {
			name = "ldr.w"
		}
		rt := armRegs[(hw2>>12)&0xf]
		return name, fmt.Sprintf("%s, [%s, %s]", rt, armRegs[hw1&0xf], armImm(hw2&0xfff)), true
	}
	return "", "", false
}
