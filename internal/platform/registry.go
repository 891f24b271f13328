package platform

import (
	"slices"

	"disasmcheck/internal/engine"
)

var (
	x86Code16 = []byte{0x8d, 0x4c, 0x32, 0x08, 0x01, 0xd8, 0x81, 0xc6, 0x34, 0x12, 0x00, 0x00}
	x86Code32 = []byte{0x8d, 0x4c, 0x32, 0x08, 0x01, 0xd8, 0x81, 0xc6, 0x34, 0x12, 0x00, 0x00}
	x86Code64 = []byte{0x55, 0x48, 0x8b, 0x05, 0xb8, 0x13, 0x00, 0x00}
	armCode   = []byte{
		0xed, 0xff, 0xff, 0xeb, 0x04, 0xe0, 0x2d, 0xe5, 0x00, 0x00, 0x00, 0x00, 0xe0, 0x83, 0x22, 0xe5,
		0xf1, 0x02, 0x03, 0x0e, 0x00, 0x00, 0xa0, 0xe3, 0x02, 0x30, 0xc1, 0xe7, 0x00, 0x00, 0x53, 0xe3,
	}
	armCode2   = []byte{0x10, 0xf1, 0x10, 0xe7, 0x11, 0xf2, 0x31, 0xe7, 0xdc, 0xa1, 0x2e, 0xf3, 0xe8, 0x4e, 0x62, 0xf3}
	thumbCode  = []byte{0x70, 0x47, 0xeb, 0x46, 0x83, 0xb0, 0xc9, 0x68}
	thumbCode2 = []byte{0x4f, 0xf0, 0x00, 0x01, 0xbd, 0xe8, 0x00, 0x88, 0xd1, 0xe8, 0x00, 0xf0}
	mipsCode   = []byte{
		0x0c, 0x10, 0x00, 0x97, 0x00, 0x00, 0x00, 0x00, 0x24, 0x02, 0x00, 0x0c,
		0x8f, 0xa2, 0x00, 0x00, 0x34, 0x21, 0x34, 0x56,
	}
	mipsCode2  = []byte{0x56, 0x34, 0x21, 0x34, 0xc2, 0x17, 0x01, 0x00}
	arm64Code  = []byte{0x21, 0x7c, 0x02, 0x9b, 0x21, 0x7c, 0x00, 0x53, 0x00, 0x40, 0x21, 0x4b, 0xe1, 0x0b, 0x40, 0xb9}
	ppcCodeBE  = []byte{0x7c, 0x08, 0x02, 0xa6, 0xf8, 0x21, 0xff, 0x91, 0x38, 0x60, 0x00, 0x00, 0x4e, 0x80, 0x00, 0x20}
	ppcCodeLE  = []byte{0xa6, 0x02, 0x08, 0x7c, 0x91, 0xff, 0x21, 0xf8, 0x00, 0x00, 0x60, 0x38, 0x20, 0x00, 0x80, 0x4e}
	riscvCode  = []byte{0x13, 0x05, 0x15, 0x00, 0x01, 0x00, 0x82, 0x80}
	s390xCode  = []byte{0xeb, 0x6f, 0xf0, 0x30, 0x00, 0x24, 0xa7, 0xfb, 0xff, 0x60, 0x07, 0xfe}
	loongCode  = []byte{0x63, 0xc0, 0xff, 0x02, 0x20, 0x00, 0x00, 0x4c}
	m6502Code  = []byte{0xa9, 0x01, 0x8d, 0x00, 0x02, 0x60}
	x86Trunc   = []byte{0x0f}
)

var table = []Descriptor{
	newDescriptor(engine.ArchX86, engine.Mode16, "X86 16bit (Intel syntax)", x86Code16...),
	newDescriptor(engine.ArchX86, engine.Mode32|engine.ModeSyntaxATT, "X86 32bit (ATT syntax)", x86Code32...),
	newDescriptor(engine.ArchX86, engine.Mode32, "X86 32 (Intel syntax)", x86Code32...),
	newDescriptor(engine.ArchX86, engine.Mode64, "X86 64 (Intel syntax)", x86Code64...),
	newDescriptor(engine.ArchARM, engine.ModeARM, "ARM", armCode...),
	newDescriptor(engine.ArchARM, engine.ModeThumb, "THUMB-2", thumbCode2...),
	newDescriptor(engine.ArchARM, engine.ModeARM, "ARM: Cortex-A15 + NEON", armCode2...),
	newDescriptor(engine.ArchARM, engine.ModeThumb, "THUMB", thumbCode...),
	newDescriptor(engine.ArchMIPS, engine.Mode32|engine.ModeBigEndian, "MIPS-32 (Big-endian)", mipsCode...),
	newDescriptor(engine.ArchMIPS, engine.Mode64|engine.ModeLittleEndian, "MIPS-64-EL (Little-endian)", mipsCode2...),
	newDescriptor(engine.ArchARM64, engine.ModeARM, "ARM-64", arm64Code...),

	newDescriptor(engine.ArchARM64, engine.ModeSyntaxGo, "ARM-64 (Go syntax)", arm64Code...),
	newDescriptor(engine.ArchPPC, engine.Mode64|engine.ModeBigEndian, "PPC-64 (Big-endian)", ppcCodeBE...),
	newDescriptor(engine.ArchPPC, engine.Mode64, "PPC-64 (Little-endian)", ppcCodeLE...),
	newDescriptor(engine.ArchRISCV, engine.Mode64|engine.ModeCompressed, "RISCV-64 (+C)", riscvCode...),
	newDescriptor(engine.ArchS390X, engine.Mode64|engine.ModeBigEndian, "S390X", s390xCode...),
	newDescriptor(engine.ArchLoong64, engine.Mode64, "LOONG64", loongCode...),
	newDescriptor(engine.Arch6502, 0, "6502", m6502Code...),

	// error branches
	newDescriptor(engine.ArchX86, engine.Mode32, "X86 32 (truncated)", x86Trunc...),
	newDescriptor(engine.ArchARM64, engine.Mode16, "ARM-64 (16-bit, unsupported)", arm64Code...),
}

// Registry returns the ordered platform table. Each call returns fresh
// copies; callers may modify the result freely.
func Registry() []Descriptor {
	out := make([]Descriptor, len(table))
	for i, d := range table {
		d.Code = slices.Clone(d.Code)
		out[i] = d
	}
	return out
}

// Lookup returns the registry row with the given label.
func Lookup(label string) (Descriptor, bool) {
	for _, d := range Registry() {
		if d.Label == label {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Filter returns the registry rows whose architecture is in arches, in
// registry order. No arches means every row.
func Filter(arches ...engine.Arch) []Descriptor {
	all := Registry()
	if len(arches) == 0 {
		return all
	}
	var out []Descriptor
	for _, d := range all {
		if slices.Contains(arches, d.Arch) {
			out = append(out, d)
		}
	}
	return out
}
