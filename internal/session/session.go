// Package session drives one platform descriptor through the engine's
// open/decode/release/close contract and walks the registry.
package session

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"disasmcheck/internal/engine"
	"disasmcheck/internal/platform"
	"disasmcheck/internal/report"
)

// BaseAddress is the address assigned to the first byte of every code buffer.
const BaseAddress uint64 = 0x1000

// Outcome is the result of running one descriptor.
type Outcome struct {
	Desc   platform.Descriptor
	Kind   report.Kind
	Report report.Report
	Err    error
	Trace  []State
}

// Entry converts the outcome for the report writers.
func (o Outcome) Entry() report.Entry {
	return report.Entry{Desc: o.Desc, Kind: o.Kind, Report: o.Report, Err: o.Err}
}

func (o *Outcome) step(s State) { o.Trace = append(o.Trace, s) }

// Manager runs single descriptors.
type Manager struct {
	eng  Engine
	base uint64
	log  *zap.Logger
}

// NewManager returns a Manager that decodes at base. A nil logger is
// replaced by a no-op logger.
func NewManager(eng Engine, base uint64, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{eng: eng, base: base, log: log}
}

// RunOne opens a session for d, decodes the whole buffer, renders the
// instructions, releases the result, and closes the session. The session is
// closed on every path after a successful open and never after a failed one.
func (m *Manager) RunOne(d platform.Descriptor) (o Outcome) {
	o.Desc = d
	o.step(StateNotStarted)

	if err := d.Validate(); err != nil {
		o.Kind, o.Err = report.KindFailed, err
		return o
	}

	dec, err := m.eng.Open(d.Arch, d.Mode)
	if err != nil {
		o.step(StateOpenFailed)
		o.Kind, o.Err = report.KindFailed, err
		if errors.Is(err, engine.ErrUnsupported) {
			o.Kind = report.KindUnsupported
		}
		return o
	}
	o.step(StateOpened)
	defer func() {
		if err := dec.Close(); err != nil && o.Err == nil {
			o.Kind, o.Err = report.KindFailed, fmt.Errorf("session: close %q: %w", d.Label, err)
		}
		o.step(StateClosed)
	}()

	buf, n, err := dec.DecodeAll(d.Code, m.base, 0)
	if err != nil {
		o.Kind, o.Err = report.KindFailed, fmt.Errorf("session: decode %q: %w", d.Label, err)
		return o
	}
	if n == 0 {
		o.step(StateEmpty)
		o.Kind = report.KindEmpty
		return o
	}

	o.step(StateDecoded)
	o.Kind = report.KindDecoded
	o.Report = report.Render(buf.Insts())
	reclaim(buf)
	m.log.Debug("decoded",
		zap.String("platform", d.Label),
		zap.Int("insts", n),
		zap.Uint64("next", o.Report.NextAddr))
	return o
}

// reclaim hands buf back to the engine. Ownership violations panic inside
// Release and are not recovered.
func reclaim(buf Buffer) {
	buf.Release()
}
