package graph

import (
	"strconv"
	"strings"

	"disasmcheck/internal/engine"
	"disasmcheck/internal/report"
)

// Branch describes a control-transfer instruction recovered from its text.
type Branch struct {
	Target    uint64 // absolute target, valid when HasTarget
	HasTarget bool
	Cond      bool // has a fallthrough edge
	IsRet     bool
	IsCall    bool // returns to the next instruction, not a block terminator
}

// Terminates reports whether b ends a basic block.
func (b *Branch) Terminates() bool { return b != nil && !b.IsCall }

var calls = map[string]bool{
	"call": true, "callq": true, "bl": true, "blx": true, "blr": true,
	"jal": true, "jalr": true, "bal": true, "jsr": true, "brasl": true, "basr": true,
}

var jumps = map[string]bool{
	"jmp": true, "b": true, "b.w": true, "j": true, "jg": true, "br": true, "bx": true,
}

var rets = map[string]bool{
	"ret": true, "retq": true, "retf": true, "iret": true, "iretd": true,
	"rts": true, "rti": true, "eret": true,
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var (
	armCondCodes = set("eq", "ne", "hs", "lo", "cs", "cc", "mi", "pl", "vs", "vc", "hi", "ls", "ge", "lt", "gt", "le")
	mipsCond     = set("beq", "bne", "blez", "bgtz", "bltz", "bgez", "bltzal", "bgezal", "beqz", "bnez")
	riscvCond    = set("beq", "bne", "blt", "bge", "bltu", "bgeu", "bgt", "ble", "beqz", "bnez", "c.beqz", "c.bnez")
	loongCond    = set("beq", "bne", "blt", "bge", "bltu", "bgeu", "beqz", "bnez", "bceqz", "bcnez")
	m6502Cond    = set("bcc", "bcs", "beq", "bmi", "bne", "bpl", "bvc", "bvs")
)

// Classify returns the branch behaviour of l on arch, or nil when l falls
// through to the next instruction.
func Classify(arch engine.Arch, l report.Line) *Branch {
	mn := strings.ToLower(l.Mnemonic)
	ops := strings.ToLower(l.Operands)

	switch {
	case rets[mn], isReturnIdiom(arch, mn, ops):
		return &Branch{IsRet: true}
	case arch == engine.ArchPPC && mn == "blr":
		return &Branch{IsRet: true}
	case calls[mn]:
		return withTarget(arch, &Branch{IsCall: true}, l)
	case jumps[mn]:
		return withTarget(arch, &Branch{}, l)
	case isCond(arch, mn):
		return withTarget(arch, &Branch{Cond: true}, l)
	}
	return nil
}

func isCond(arch engine.Arch, mn string) bool {
	switch arch {
	case engine.ArchX86:
		return (strings.HasPrefix(mn, "j") && mn != "jmp") || strings.HasPrefix(mn, "loop")
	case engine.ArchARM:
		if mn == "cbz" || mn == "cbnz" {
			return true
		}
		c, ok := strings.CutPrefix(strings.TrimSuffix(mn, ".w"), "b")
		return ok && armCondCodes[c]
	case engine.ArchARM64:
		return strings.HasPrefix(mn, "b.") || mn == "cbz" || mn == "cbnz" || mn == "tbz" || mn == "tbnz"
	case engine.ArchMIPS:
		return mipsCond[mn]
	case engine.ArchPPC:
		return strings.HasPrefix(mn, "b") && !strings.HasPrefix(mn, "bctr")
	case engine.ArchRISCV:
		return riscvCond[mn]
	case engine.ArchS390X:
		return mn == "brc" || mn == "bc" || mn == "brct" || (strings.HasPrefix(mn, "j") && mn != "j")
	case engine.ArchLoong64:
		return loongCond[mn]
	case engine.Arch6502:
		return m6502Cond[mn]
	}
	return false
}

func isReturnIdiom(arch engine.Arch, mn, ops string) bool {
	switch arch {
	case engine.ArchARM:
		return (mn == "bx" && ops == "lr") ||
			((mn == "pop" || mn == "pop.w" || strings.HasPrefix(mn, "ldm")) && strings.Contains(ops, "pc}"))
	case engine.ArchMIPS:
		return mn == "jr" && ops == "$ra"
	case engine.ArchRISCV:
		return (mn == "jr" || mn == "c.jr") && ops == "ra"
	case engine.ArchS390X:
		return mn == "br" && ops == "%r14"
	case engine.ArchLoong64:
		return mn == "jirl" && strings.HasPrefix(ops, "$zero, $ra")
	}
	return false
}

// withTarget fills in the branch target from the last operand, when it is an
// absolute or pc-relative constant.
func withTarget(arch engine.Arch, b *Branch, l report.Line) *Branch {
	fields := strings.Split(l.Operands, ",")
	last := strings.TrimSpace(fields[len(fields)-1])
	if t, ok := parseTarget(arch, last, l.Addr); ok {
		b.Target, b.HasTarget = t, true
	}
	return b
}

func parseTarget(arch engine.Arch, s string, pc uint64) (uint64, bool) {
	s = strings.TrimPrefix(s, "#")
	switch {
	case strings.HasPrefix(s, ".+"), strings.HasPrefix(s, ".-"):
		off, err := strconv.ParseInt(s[1:], 0, 64)
		if err != nil {
			return 0, false
		}
		return uint64(int64(pc) + off), true
	case arch == engine.Arch6502 && strings.HasPrefix(s, "$"):
		v, err := strconv.ParseUint(s[1:], 16, 16)
		return v, err == nil
	case strings.HasPrefix(s, "0x"):
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}
	return 0, false
}
