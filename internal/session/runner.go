package session

import (
	"go.uber.org/zap"

	"disasmcheck/internal/platform"
	"disasmcheck/internal/report"
)

// Runner walks a platform list in order.
type Runner struct {
	mgr *Manager
	log *zap.Logger
}

// NewRunner returns a Runner. A nil logger is replaced by a no-op logger.
func NewRunner(mgr *Manager, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{mgr: mgr, log: log}
}

// Run executes every descriptor and returns one Outcome per descriptor in the
// same order. A failing descriptor is logged and does not stop the loop.
func (r *Runner) Run(platforms []platform.Descriptor) []Outcome {
	out := make([]Outcome, 0, len(platforms))
	for _, d := range platforms {
		o := r.mgr.RunOne(d)
		if o.Err != nil {
			r.log.Warn("platform failed",
				zap.String("platform", d.Label),
				zap.Stringer("arch", d.Arch),
				zap.Stringer("mode", d.Mode),
				zap.Stringer("kind", o.Kind),
				zap.Error(o.Err))
		} else if o.Kind == report.KindEmpty {
			r.log.Info("nothing decoded", zap.String("platform", d.Label))
		}
		out = append(out, o)
	}
	return out
}

// Entries converts outcomes for the report writers.
func Entries(outcomes []Outcome) []report.Entry {
	entries := make([]report.Entry, len(outcomes))
	for i, o := range outcomes {
		entries[i] = o.Entry()
	}
	return entries
}

// Summary counts outcomes by kind.
type Summary struct {
	Decoded     int
	Empty       int
	Unsupported int
	Failed      int
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		switch o.Kind {
		case report.KindDecoded:
			s.Decoded++
		case report.KindEmpty:
			s.Empty++
		case report.KindUnsupported:
			s.Unsupported++
		default:
			s.Failed++
		}
	}
	return s
}

// Total returns the number of outcomes counted.
func (s Summary) Total() int { return s.Decoded + s.Empty + s.Unsupported + s.Failed }
