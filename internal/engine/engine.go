// Package engine is a multi-architecture instruction decoder with an
// open/decode/release/close contract.
//
// A Context is bound to one (Arch, Mode) pair for its lifetime. DecodeAll
// returns an engine-owned Result; the caller owns it once DecodeAll returns
// n > 0 and must Release it exactly once. Contexts must be closed exactly
// once.
package engine

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupported      = errors.New("engine: unsupported architecture/mode")
	ErrClosed           = errors.New("engine: context closed")
	ErrDoubleRelease    = errors.New("engine: result released twice")
	ErrUseAfterRelease  = errors.New("engine: result used after release")
	errInvalid          = errors.New("engine: invalid instruction")
	errTruncated        = errors.New("engine: truncated instruction")
	errUnsupportedInsts = errors.New("engine: instruction not supported by mode")
)

// API version of the engine contract.
const (
	VersionMajor = 1
	VersionMinor = 2
)

// Version returns the engine API version.
func Version() (major, minor int) { return VersionMajor, VersionMinor }

// DefaultMaxSteps caps the number of instructions one DecodeAll call may
// produce when Options.MaxSteps is zero.
const DefaultMaxSteps = 10_000_000

// Options tunes a Context.
type Options struct {
	MaxSteps int // instruction ceiling per DecodeAll; 0 = DefaultMaxSteps
}

func (o Options) effectiveMax() int {
	if o.MaxSteps > 0 {
		return o.MaxSteps
	}
	return DefaultMaxSteps
}

// Inst is one decoded instruction.
type Inst struct {
	Addr     uint64
	Size     int
	Bytes    []byte // copy of the consumed input
	Mnemonic string
	Operands string
}

// End returns the address immediately after the instruction.
func (i Inst) End() uint64 { return i.Addr + uint64(i.Size) }

func (i Inst) String() string {
	if i.Operands == "" {
		return i.Mnemonic
	}
	return i.Mnemonic + " " + i.Operands
}

// backend decodes the single instruction at the start of src, located at pc.
type backend interface {
	decode(src []byte, pc uint64) (Inst, error)
}

// Context is an open decoding session.
type Context struct {
	arch   Arch
	mode   Mode
	opts   Options
	be     backend
	closed bool
}

// Open creates a Context for arch/mode with default options.
func Open(arch Arch, mode Mode) (*Context, error) {
	return OpenWithOptions(arch, mode, Options{})
}

// OpenWithOptions creates a Context for arch/mode.
// It fails with ErrUnsupported when the pair is not recognized.
func OpenWithOptions(arch Arch, mode Mode, opts Options) (*Context, error) {
	if !arch.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, arch)
	}
	spec, ok := archSpecs[arch]
	if !ok {
		return nil, fmt.Errorf("%w: no backend for %s", ErrUnsupported, arch)
	}
	if err := spec.validate(arch, mode); err != nil {
		return nil, err
	}
	return &Context{
		arch: arch,
		mode: mode,
		opts: opts,
		be:   spec.build(mode),
	}, nil
}

func (c *Context) Arch() Arch { return c.arch }
func (c *Context) Mode() Mode { return c.mode }

// Close releases the context. A second Close returns ErrClosed.
func (c *Context) Close() error {
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	c.be = nil
	return nil
}

// DecodeOne decodes the single instruction at the start of code.
func (c *Context) DecodeOne(code []byte, addr uint64) (Inst, error) {
	if c.closed {
		return Inst{}, ErrClosed
	}
	if len(code) == 0 {
		return Inst{}, errTruncated
	}
	return c.decode(code, addr)
}

// DecodeAll decodes up to count instructions (0 = all) from code, assigning
// addresses from addr. Decoding stops at the end of code, at the first byte
// sequence that does not form a complete valid instruction, or at the step
// ceiling. n == 0 means no instruction decoded at the start of code; the
// Result is then nil and there is nothing to release.
func (c *Context) DecodeAll(code []byte, addr uint64, count int) (res *Result, n int, err error) {
	if c.closed {
		return nil, 0, ErrClosed
	}
	limit := c.opts.effectiveMax()
	if count > 0 && count < limit {
		limit = count
	}

	insts := getBuf()
	off := 0
	for off < len(code) && len(insts) < limit {
		inst, err := c.decode(code[off:], addr+uint64(off))
		if err != nil {
			break
		}
		insts = append(insts, inst)
		off += inst.Size
	}
	if len(insts) == 0 {
		putBuf(insts)
		return nil, 0, nil
	}
	return &Result{insts: insts}, len(insts), nil
}

func (c *Context) decode(code []byte, addr uint64) (Inst, error) {
	inst, err := c.be.decode(code, addr)
	if err != nil {
		return Inst{}, err
	}
	if inst.Size <= 0 || inst.Size > len(code) {
		return Inst{}, fmt.Errorf("%w: size %d at 0x%x", errInvalid, inst.Size, addr)
	}
	inst.Addr = addr
	inst.Bytes = append([]byte(nil), code[:inst.Size]...)
	return inst, nil
}
