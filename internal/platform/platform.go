// Package platform holds the fixed table of (architecture, mode, code) cases
// the harness walks.
package platform

import (
	"errors"
	"fmt"
	"strings"

	"disasmcheck/internal/engine"
)

// ErrSizeMismatch is returned by Validate when Size disagrees with len(Code).
var ErrSizeMismatch = errors.New("platform: size does not match code length")

// Descriptor is one test case: an architecture, mode flags, and the raw
// instruction stream to decode. Code is never mutated.
type Descriptor struct {
	Arch  engine.Arch
	Mode  engine.Mode
	Code  []byte
	Size  int
	Label string
}

// Validate checks the Size == len(Code) invariant.
func (d Descriptor) Validate() error {
	if d.Size != len(d.Code) {
		return fmt.Errorf("%w: %q has size %d, code is %d bytes", ErrSizeMismatch, d.Label, d.Size, len(d.Code))
	}
	return nil
}

// Hex renders code as "0x8d 0x4c ... " with a trailing space after every byte.
func Hex(code []byte) string {
	var b strings.Builder
	b.Grow(len(code) * 5)
	for _, c := range code {
		fmt.Fprintf(&b, "0x%02x ", c)
	}
	return b.String()
}

func newDescriptor(a engine.Arch, m engine.Mode, label string, code ...byte) Descriptor {
	return Descriptor{Arch: a, Mode: m, Code: code, Size: len(code), Label: label}
}
