// Package report turns decoded instruction sequences into the harness's
// text and JSONL output.
package report

import (
	"fmt"
	"io"
	"strings"

	"disasmcheck/internal/engine"
	"disasmcheck/internal/platform"
)

// Kind classifies what happened to one platform descriptor.
type Kind int

const (
	KindDecoded     Kind = iota // at least one instruction
	KindEmpty                   // open succeeded, nothing decoded
	KindUnsupported             // open rejected the arch/mode pair
	KindFailed                  // any other per-descriptor error
)

var kindNames = [...]string{"decoded", "empty", "unsupported", "failed"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Line is one rendered instruction. Bytes is a private copy.
type Line struct {
	Addr     uint64 `json:"addr"`
	Size     int    `json:"size"`
	Bytes    []byte `json:"bytes"`
	Mnemonic string `json:"mnemonic"`
	Operands string `json:"operands"`
}

// Report is the rendered form of a successful decode. It holds no reference
// to engine-owned memory, so it stays valid after the result is released.
type Report struct {
	Lines    []Line
	NextAddr uint64 // address immediately after the last instruction
}

// Render copies insts into a Report. insts must be non-empty.
func Render(insts []engine.Inst) Report {
	r := Report{Lines: make([]Line, len(insts))}
	for i, inst := range insts {
		r.Lines[i] = Line{
			Addr:     inst.Addr,
			Size:     inst.Size,
			Bytes:    append([]byte(nil), inst.Bytes...),
			Mnemonic: inst.Mnemonic,
			Operands: inst.Operands,
		}
	}
	if n := len(insts); n > 0 {
		r.NextAddr = insts[n-1].Addr + uint64(insts[n-1].Size)
	}
	return r
}

// Entry is everything the writers need to describe one descriptor's run.
type Entry struct {
	Desc   platform.Descriptor
	Kind   Kind
	Report Report // meaningful only for KindDecoded
	Err    error
}

const separator = "****************"

// WriteText writes entries in the classic harness layout:
//
//	****************
//	Platform: X86 32 (Intel syntax)
//	Code: 0x8d 0x4c ...
//	Disasm:
//	0x1000:	lea		ecx, ptr [edx+esi*1+0x8]
//	...
//	0x100c:
//
// Each entry ends with a blank line.
func WriteText(w io.Writer, entries ...Entry) error {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(separator + "\n")
		fmt.Fprintf(&b, "Platform: %s\n", e.Desc.Label)
		fmt.Fprintf(&b, "Code: %s\n", platform.Hex(e.Desc.Code))
		switch e.Kind {
		case KindDecoded:
			b.WriteString("Disasm:\n")
			for _, l := range e.Report.Lines {
				fmt.Fprintf(&b, "0x%x:\t%s\t\t%s\n", l.Addr, l.Mnemonic, l.Operands)
			}
			fmt.Fprintf(&b, "0x%x:\n", e.Report.NextAddr)
		case KindEmpty:
			b.WriteString("ERROR: Failed to disasm given code!\n")
		case KindUnsupported:
			fmt.Fprintf(&b, "ERROR: Failed on open() with error returned: %v\n", e.Err)
		default:
			fmt.Fprintf(&b, "ERROR: %v\n", e.Err)
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("report: write text: %w", err)
	}
	return nil
}
