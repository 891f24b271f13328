// Package elfx loads code from ELF executables and objects for ad-hoc
// decoding.
package elfx

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"

	"disasmcheck/internal/engine"
	"disasmcheck/internal/platform"
)

var (
	ErrNotELF         = errors.New("elfx: not an ELF file")
	ErrUnknownMachine = errors.New("elfx: no engine architecture for machine")
	ErrNoSection      = errors.New("elfx: section not found")
	ErrNoSymbol       = errors.New("elfx: symbol not found")
	ErrNoSegment      = errors.New("elfx: no PT_LOAD segment covers address")
	ErrSymbolNoSize   = errors.New("elfx: symbol has zero size")
)

// efRISCVRVC is the e_flags bit marking objects that use compressed instructions.
const efRISCVRVC = 0x1

// File wraps a debug/elf.File with the lookups the decode command needs.
type File struct {
	ELF  *elf.File
	raw  io.ReaderAt
	size int64
	c    io.Closer
}

// Open opens an ELF file of any machine type.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elfx: open: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("elfx: stat: %w", err)
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrNotELF, err)
	}
	return &File{ELF: ef, raw: f, size: info.Size(), c: f}, nil
}

// Close releases resources.
func (f *File) Close() error {
	f.ELF.Close()
	return f.c.Close()
}

// FileSize returns the size of the underlying file.
func (f *File) FileSize() int64 { return f.size }

// Target maps the ELF machine, class, byte order and flags to an engine
// architecture and mode.
func (f *File) Target() (engine.Arch, engine.Mode, error) {
	h := f.ELF.FileHeader
	var be engine.Mode
	if h.Data == elf.ELFDATA2MSB {
		be = engine.ModeBigEndian
	}
	width := engine.Mode32
	if h.Class == elf.ELFCLASS64 {
		width = engine.Mode64
	}

	switch h.Machine {
	case elf.EM_386:
		return engine.ArchX86, engine.Mode32, nil
	case elf.EM_X86_64:
		return engine.ArchX86, engine.Mode64, nil
	case elf.EM_ARM:
		return engine.ArchARM, engine.ModeARM, nil
	case elf.EM_AARCH64:
		return engine.ArchARM64, 0, nil
	case elf.EM_MIPS:
		return engine.ArchMIPS, width | be, nil
	case elf.EM_PPC64:
		return engine.ArchPPC, engine.Mode64 | be, nil
	case elf.EM_RISCV:
		if h.Class != elf.ELFCLASS64 {
			break
		}
		m := engine.Mode64
		if f.flags()&efRISCVRVC != 0 {
			m |= engine.ModeCompressed
		}
		return engine.ArchRISCV, m, nil
	case elf.EM_S390:
		return engine.ArchS390X, engine.Mode64 | engine.ModeBigEndian, nil
	case elf.EM_LOONGARCH:
		return engine.ArchLoong64, engine.Mode64, nil
	}
	return 0, 0, fmt.Errorf("%w: %s (%s)", ErrUnknownMachine, h.Machine, h.Class)
}

// flags reads e_flags, which debug/elf does not expose.
func (f *File) flags() uint32 {
	// e_flags sits after e_entry, e_phoff and e_shoff.
	off := int64(0x24)
	if f.ELF.Class == elf.ELFCLASS64 {
		off = 0x30
	}
	var b [4]byte
	if _, err := f.raw.ReadAt(b[:], off); err != nil {
		return 0
	}
	return f.ELF.ByteOrder.Uint32(b[:])
}

// Section returns the contents and load address of the named section.
func (f *File) Section(name string) ([]byte, uint64, error) {
	sec := f.ELF.Section(name)
	if sec == nil || sec.Type == elf.SHT_NOBITS {
		return nil, 0, fmt.Errorf("%w: %s", ErrNoSection, name)
	}
	data, err := sec.Data()
	if err != nil {
		return nil, 0, fmt.Errorf("elfx: read %s: %w", name, err)
	}
	return data, sec.Addr, nil
}

// Symbol looks up a symbol by exact name in .symtab, then .dynsym.
// Returns the symbol's virtual address and size.
func (f *File) Symbol(name string) (addr, size uint64, err error) {
	for _, load := range []func() ([]elf.Symbol, error){f.ELF.Symbols, f.ELF.DynamicSymbols} {
		syms, err := load()
		if err != nil {
			continue
		}
		for _, s := range syms {
			if s.Name == name {
				return s.Value, s.Size, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrNoSymbol, name)
}

// VAToFileOffset converts a virtual address to a file offset using PT_LOAD segments.
func (f *File) VAToFileOffset(va uint64) (uint64, error) {
	for _, p := range f.ELF.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if va >= p.Vaddr && va < p.Vaddr+p.Filesz {
			offset := va - p.Vaddr + p.Off
			if offset >= uint64(f.size) {
				return 0, fmt.Errorf("elfx: VA 0x%x maps to offset 0x%x beyond file size 0x%x", va, offset, f.size)
			}
			return offset, nil
		}
	}
	return 0, fmt.Errorf("%w: VA 0x%x", ErrNoSegment, va)
}

// ReadBytesAtVA reads n bytes starting at the given virtual address.
func (f *File) ReadBytesAtVA(va uint64, n int) ([]byte, error) {
	off, err := f.VAToFileOffset(va)
	if err != nil {
		return nil, err
	}
	// Clamp to file size.
	avail := f.size - int64(off)
	if int64(n) > avail {
		n = int(avail)
	}
	buf := make([]byte, n)
	_, err = f.raw.ReadAt(buf, int64(off))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("elfx: read at 0x%x: %w", off, err)
	}
	return buf, nil
}

// TextDescriptor returns a descriptor covering the whole .text section and
// the section's load address.
func (f *File) TextDescriptor() (platform.Descriptor, uint64, error) {
	a, m, err := f.Target()
	if err != nil {
		return platform.Descriptor{}, 0, err
	}
	code, addr, err := f.Section(".text")
	if err != nil {
		return platform.Descriptor{}, 0, err
	}
	return platform.Descriptor{Arch: a, Mode: m, Code: code, Size: len(code), Label: ".text"}, addr, nil
}

// SymbolDescriptor returns a descriptor covering one function symbol and its
// address. On 32-bit ARM an odd symbol value selects Thumb.
func (f *File) SymbolDescriptor(name string) (platform.Descriptor, uint64, error) {
	a, m, err := f.Target()
	if err != nil {
		return platform.Descriptor{}, 0, err
	}
	va, size, err := f.Symbol(name)
	if err != nil {
		return platform.Descriptor{}, 0, err
	}
	if size == 0 {
		return platform.Descriptor{}, 0, fmt.Errorf("%w: %s", ErrSymbolNoSize, name)
	}
	if a == engine.ArchARM && va&1 != 0 {
		va &^= 1
		m |= engine.ModeThumb
	}
	code, err := f.ReadBytesAtVA(va, int(size))
	if err != nil {
		return platform.Descriptor{}, 0, err
	}
	return platform.Descriptor{Arch: a, Mode: m, Code: code, Size: len(code), Label: name}, va, nil
}
