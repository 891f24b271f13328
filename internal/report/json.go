package report

import (
	"encoding/json"
	"fmt"
	"io"

	"disasmcheck/internal/engine"
	"disasmcheck/internal/platform"
)

// Record is the JSONL form of an Entry.
type Record struct {
	Platform string `json:"platform"`
	Arch     string `json:"arch"`
	Mode     string `json:"mode"`
	Code     []byte `json:"code"`
	Kind     string `json:"kind"`
	Error    string `json:"error,omitempty"`
	Insts    []Line `json:"insts,omitempty"`
	NextAddr uint64 `json:"next_addr,omitempty"`
}

// NewRecord converts e to its JSONL form.
func NewRecord(e Entry) Record {
	rec := Record{
		Platform: e.Desc.Label,
		Arch:     e.Desc.Arch.String(),
		Mode:     e.Desc.Mode.String(),
		Code:     e.Desc.Code,
		Kind:     e.Kind.String(),
	}
	if e.Err != nil {
		rec.Error = e.Err.Error()
	}
	if e.Kind == KindDecoded {
		rec.Insts = e.Report.Lines
		rec.NextAddr = e.Report.NextAddr
	}
	return rec
}

// Descriptor rebuilds the platform descriptor a record was produced from.
func (r Record) Descriptor() (platform.Descriptor, error) {
	a, err := engine.ParseArch(r.Arch)
	if err != nil {
		return platform.Descriptor{}, fmt.Errorf("report: record %q: %w", r.Platform, err)
	}
	m, err := engine.ParseMode(r.Mode)
	if err != nil {
		return platform.Descriptor{}, fmt.Errorf("report: record %q: %w", r.Platform, err)
	}
	return platform.Descriptor{Arch: a, Mode: m, Code: r.Code, Size: len(r.Code), Label: r.Platform}, nil
}

// WriteJSON writes one JSON object per entry.
func WriteJSON(w io.Writer, entries ...Entry) error {
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(NewRecord(e)); err != nil {
			return fmt.Errorf("report: encode %q: %w", e.Desc.Label, err)
		}
	}
	return nil
}

// ReadJSON reads records written by WriteJSON.
func ReadJSON(r io.Reader) ([]Record, error) {
	var records []Record
	dec := json.NewDecoder(r)
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return records, fmt.Errorf("report: line %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
