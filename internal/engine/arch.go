package engine

import (
	"fmt"
	"strings"
)

// Arch identifies an instruction-set family.
type Arch uint8

const (
	ArchX86 Arch = iota + 1
	ArchARM
	ArchARM64
	ArchMIPS
	ArchPPC
	ArchRISCV
	ArchS390X
	ArchLoong64
	Arch6502

	archEnd // sentinel, not a valid architecture
)

var archNames = map[Arch]string{
	ArchX86:     "x86",
	ArchARM:     "arm",
	ArchARM64:   "arm64",
	ArchMIPS:    "mips",
	ArchPPC:     "ppc",
	ArchRISCV:   "riscv",
	ArchS390X:   "s390x",
	ArchLoong64: "loong64",
	Arch6502:    "6502",
}

func (a Arch) String() string {
	if s, ok := archNames[a]; ok {
		return s
	}
	return fmt.Sprintf("arch(%d)", uint8(a))
}

// Valid reports whether a is one of the enumerated architectures.
func (a Arch) Valid() bool { return a > 0 && a < archEnd }

// Arches returns every architecture in enumeration order.
func Arches() []Arch {
	out := make([]Arch, 0, int(archEnd)-1)
	for a := ArchX86; a < archEnd; a++ {
		out = append(out, a)
	}
	return out
}

// ParseArch maps a name such as "x86" or "arm64" to an Arch.
func ParseArch(s string) (Arch, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a, name := range archNames {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown architecture %q", ErrUnsupported, s)
}

// Mode is a set of decode refinements. Flags are architecture specific and
// combine with bitwise OR. The zero value means little-endian, the default
// word width, and the default syntax (ARM state for ArchARM).
type Mode uint32

const (
	ModeLittleEndian Mode = 0
	ModeARM          Mode = 0
	Mode16           Mode = 1 << 1
	Mode32           Mode = 1 << 2
	Mode64           Mode = 1 << 3
	ModeThumb        Mode = 1 << 4
	ModeCompressed   Mode = 1 << 5 // RISC-V "C" extension
	ModeSyntaxATT    Mode = 1 << 28
	ModeSyntaxGo     Mode = 1 << 29
	ModeBigEndian    Mode = 1 << 31
)

const (
	widthMask  = Mode16 | Mode32 | Mode64
	syntaxMask = ModeSyntaxATT | ModeSyntaxGo
)

var modeNames = []struct {
	m    Mode
	name string
}{
	{Mode16, "16"},
	{Mode32, "32"},
	{Mode64, "64"},
	{ModeThumb, "thumb"},
	{ModeCompressed, "compressed"},
	{ModeSyntaxATT, "att"},
	{ModeSyntaxGo, "go"},
	{ModeBigEndian, "be"},
}

// Has reports whether every flag in f is set in m.
func (m Mode) Has(f Mode) bool { return m&f == f }

func (m Mode) String() string {
	if m == 0 {
		return "default"
	}
	var parts []string
	rest := m
	for _, n := range modeNames {
		if m&n.m != 0 {
			parts = append(parts, n.name)
			rest &^= n.m
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseMode parses a comma or pipe separated flag list, e.g. "32,att" or
// "64|be". Empty input and "default" yield the zero Mode.
func ParseMode(s string) (Mode, error) {
	var m Mode
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		switch tok {
		case "", "default", "le", "arm":
			continue
		}
		found := false
		for _, n := range modeNames {
			if n.name == tok {
				m |= n.m
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown mode flag %q", ErrUnsupported, tok)
		}
	}
	return m, nil
}

// archSpec declares which mode combinations an architecture accepts and how
// to build its backend. Validation happens once, at Open.
type archSpec struct {
	allowed  Mode // every flag that may appear
	widths   Mode // accepted width flags; 0 means width must be absent
	needW    bool // a width flag is mandatory
	conflict Mode // flags that may appear alone but not together
	build    func(Mode) backend
}

var archSpecs = map[Arch]archSpec{
	ArchX86: {
		allowed: widthMask | syntaxMask,
		widths:  widthMask,
		needW:   true,
		build:   newX86,
	},
	ArchARM: {
		allowed:  ModeThumb | ModeSyntaxGo,
		conflict: ModeThumb | ModeSyntaxGo, // the Thumb decoder prints GNU syntax only
		build:    newARM,
	},
	ArchARM64: {
		allowed: ModeSyntaxGo,
		build:   newARM64,
	},
	ArchMIPS: {
		allowed: Mode32 | Mode64 | ModeBigEndian,
		widths:  Mode32 | Mode64,
		needW:   true,
		build:   newMIPS,
	},
	ArchPPC: {
		allowed: Mode64 | ModeBigEndian | ModeSyntaxGo,
		widths:  Mode64,
		build:   newPPC,
	},
	ArchRISCV: {
		allowed: Mode64 | ModeCompressed | ModeSyntaxGo,
		widths:  Mode64,
		build:   newRISCV,
	},
	ArchS390X: {
		allowed: Mode64 | ModeBigEndian | ModeSyntaxGo,
		widths:  Mode64,
		build:   newS390X,
	},
	ArchLoong64: {
		allowed: Mode64 | ModeSyntaxGo,
		widths:  Mode64,
		build:   newLoong64,
	},
	Arch6502: {
		build: new6502,
	},
}

// validate checks mode against the architecture's accepted flag set.
func (s archSpec) validate(a Arch, m Mode) error {
	if extra := m &^ s.allowed; extra != 0 {
		return fmt.Errorf("%w: %s does not accept mode %s", ErrUnsupported, a, extra)
	}
	w := m & widthMask
	if w&(w-1) != 0 {
		return fmt.Errorf("%w: %s: more than one width in mode %s", ErrUnsupported, a, m)
	}
	if w != 0 && w&s.widths == 0 {
		return fmt.Errorf("%w: %s does not decode %s-bit code", ErrUnsupported, a, w)
	}
	if s.needW && w == 0 {
		return fmt.Errorf("%w: %s requires a width flag", ErrUnsupported, a)
	}
	if s.conflict != 0 && m.Has(s.conflict) {
		return fmt.Errorf("%w: %s does not accept %s together", ErrUnsupported, a, s.conflict)
	}
	if m&syntaxMask == syntaxMask {
		return fmt.Errorf("%w: %s: conflicting syntax flags", ErrUnsupported, a)
	}
	return nil
}

// Supports reports whether the engine was built with a backend for a.
func Supports(a Arch) bool {
	_, ok := archSpecs[a]
	return ok
}
