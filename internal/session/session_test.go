package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"disasmcheck/internal/engine"
	"disasmcheck/internal/platform"
	"disasmcheck/internal/report"
)

func desc(label string, code ...byte) platform.Descriptor {
	return platform.Descriptor{Arch: engine.ArchX86, Mode: engine.Mode32, Code: code, Size: len(code), Label: label}
}

func checkTrace(t *testing.T, o Outcome) {
	t.Helper()
	if len(o.Trace) == 0 || o.Trace[0] != StateNotStarted {
		t.Fatalf("trace %v does not start at not-started", o.Trace)
	}
	opened, closed := 0, 0
	for i, s := range o.Trace {
		if i > 0 && !s.CanFollow(o.Trace[i-1]) {
			t.Errorf("illegal transition %s -> %s in %v", o.Trace[i-1], s, o.Trace)
		}
		switch s {
		case StateOpened:
			opened++
		case StateClosed:
			closed++
		}
	}
	if opened != closed || closed > 1 {
		t.Errorf("trace %v: opened %d, closed %d", o.Trace, opened, closed)
	}
}

func TestRunOneDecoded(t *testing.T) {
	f := &fakeEngine{n: 3}
	m := NewManager(f, BaseAddress, nil)
	o := m.RunOne(desc("three", 1, 2, 3, 4))

	if o.Err != nil || o.Kind != report.KindDecoded {
		t.Fatalf("kind = %s, err = %v", o.Kind, o.Err)
	}
	if len(o.Report.Lines) != 3 || o.Report.NextAddr != 0x1003 {
		t.Errorf("report = %+v", o.Report)
	}
	want := []State{StateNotStarted, StateOpened, StateDecoded, StateClosed}
	if diff := cmp.Diff(want, o.Trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	if f.opens != 1 || f.closes != 1 || f.releases != 1 {
		t.Errorf("opens %d closes %d releases %d, want 1 1 1", f.opens, f.closes, f.releases)
	}
	checkTrace(t, o)
}

func TestRunOneEmpty(t *testing.T) {
	f := &fakeEngine{n: 0}
	o := NewManager(f, BaseAddress, nil).RunOne(desc("empty", 0x0f))

	if o.Kind != report.KindEmpty || o.Err != nil {
		t.Fatalf("kind = %s, err = %v", o.Kind, o.Err)
	}
	if f.releases != 0 {
		t.Errorf("released %d times on empty decode", f.releases)
	}
	if f.closes != 1 {
		t.Errorf("closed %d times, want 1", f.closes)
	}
	want := []State{StateNotStarted, StateOpened, StateEmpty, StateClosed}
	if diff := cmp.Diff(want, o.Trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestRunOneOpenFailed(t *testing.T) {
	f := &fakeEngine{openErr: fmt.Errorf("%w: test", engine.ErrUnsupported)}
	o := NewManager(f, BaseAddress, nil).RunOne(desc("bad mode", 1))

	if o.Kind != report.KindUnsupported || !errors.Is(o.Err, engine.ErrUnsupported) {
		t.Fatalf("kind = %s, err = %v", o.Kind, o.Err)
	}
	if f.closes != 0 {
		t.Errorf("closed %d times after failed open", f.closes)
	}
	if diff := cmp.Diff([]State{StateNotStarted, StateOpenFailed}, o.Trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	checkTrace(t, o)
}

func TestRunOneDecodeErrorStillCloses(t *testing.T) {
	f := &fakeEngine{decErr: engine.ErrClosed}
	o := NewManager(f, BaseAddress, nil).RunOne(desc("decode err", 1))
	if o.Kind != report.KindFailed || !errors.Is(o.Err, engine.ErrClosed) {
		t.Fatalf("kind = %s, err = %v", o.Kind, o.Err)
	}
	if f.closes != 1 || f.open != 0 {
		t.Errorf("closes %d, open %d", f.closes, f.open)
	}
	checkTrace(t, o)
}

func TestRunOneCloseError(t *testing.T) {
	f := &fakeEngine{n: 1, closeErr: errors.New("close boom")}
	o := NewManager(f, BaseAddress, nil).RunOne(desc("close err", 1))
	if o.Kind != report.KindFailed || o.Err == nil {
		t.Fatalf("kind = %s, err = %v", o.Kind, o.Err)
	}
	if f.releases != 1 {
		t.Errorf("releases = %d", f.releases)
	}
}

func TestRunOneSizeMismatch(t *testing.T) {
	f := &fakeEngine{n: 1}
	d := desc("short", 1, 2)
	d.Size = 5
	o := NewManager(f, BaseAddress, nil).RunOne(d)
	if !errors.Is(o.Err, platform.ErrSizeMismatch) || o.Kind != report.KindFailed {
		t.Fatalf("kind = %s, err = %v", o.Kind, o.Err)
	}
	if f.opens != 0 {
		t.Error("engine opened for an invalid descriptor")
	}
}

func TestRunnerBalancesResources(t *testing.T) {
	f := &fakeEngine{n: 1}
	r := NewRunner(NewManager(f, BaseAddress, nil), nil)
	out := r.Run([]platform.Descriptor{desc("a", 1), desc("b", 2), desc("c", 3)})

	if len(out) != 3 {
		t.Fatalf("got %d outcomes", len(out))
	}
	if f.opens != 3 || f.closes != 3 || f.releases != 3 || f.open != 0 {
		t.Errorf("opens %d closes %d releases %d open %d", f.opens, f.closes, f.releases, f.open)
	}
	for _, o := range out {
		checkTrace(t, o)
	}
}

func TestReclaimTwicePanics(t *testing.T) {
	b := &fakeBuffer{f: &fakeEngine{}}
	reclaim(b)
	defer func() {
		if r := recover(); r != engine.ErrDoubleRelease {
			t.Fatalf("recovered %v, want ErrDoubleRelease", r)
		}
	}()
	reclaim(b)
}

func TestStateTransitions(t *testing.T) {
	if !StateOpened.CanFollow(StateNotStarted) || !StateOpenFailed.CanFollow(StateNotStarted) {
		t.Error("open transitions rejected")
	}
	if StateClosed.CanFollow(StateNotStarted) {
		t.Error("close allowed without open")
	}
	if StateClosed.CanFollow(StateOpenFailed) {
		t.Error("close allowed after failed open")
	}
	if !StateClosed.Terminal() || !StateOpenFailed.Terminal() {
		t.Error("closed and open-failed must be terminal")
	}
	if StateOpened.Terminal() {
		t.Error("opened is not terminal")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Outcome{
		{Kind: report.KindDecoded},
		{Kind: report.KindDecoded},
		{Kind: report.KindEmpty},
		{Kind: report.KindUnsupported},
		{Kind: report.KindFailed},
	})
	want := Summary{Decoded: 2, Empty: 1, Unsupported: 1, Failed: 1}
	if s != want {
		t.Fatalf("Summarize = %+v, want %+v", s, want)
	}
	if s.Total() != 5 {
		t.Errorf("Total = %d", s.Total())
	}
}
