package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"

	"disasmcheck/internal/engine"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		debug, quiet bool
		want         zapcore.Level
	}{
		{false, false, zapcore.InfoLevel},
		{true, false, zapcore.DebugLevel},
		{false, true, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		if got := Level(tt.debug, tt.quiet); got != tt.want {
			t.Errorf("Level(%v, %v) = %s, want %s", tt.debug, tt.quiet, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(false, true)
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zapcore.WarnLevel) {
		t.Error("quiet logger has warn enabled")
	}
	if !log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("quiet logger has error disabled")
	}
}

func TestLevelEncoder(t *testing.T) {
	for _, tty := range []bool{false, true} {
		enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			LevelKey:    "L",
			MessageKey:  "M",
			EncodeLevel: LevelEncoder(tty),
		})
		buf, err := enc.EncodeEntry(zapcore.Entry{Level: zapcore.WarnLevel, Message: "m"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, "WARN") {
			t.Errorf("tty=%v: %q has no level", tty, out)
		}
		if got := strings.Contains(out, "\x1b["); got != tty {
			t.Errorf("tty=%v: colored = %v in %q", tty, got, out)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := (Options{Debug: true, Quiet: true}).Validate(); !errors.Is(err, ErrConflictingFlags) {
		t.Errorf("err = %v", err)
	}
	if err := (Options{MaxSteps: -1}).Validate(); err == nil {
		t.Error("negative MaxSteps accepted")
	}
	if err := (Options{Debug: true, MaxSteps: 5}).Validate(); err != nil {
		t.Error(err)
	}
}

func TestParseArches(t *testing.T) {
	got, err := ParseArches("x86, arm64,,mips")
	if err != nil {
		t.Fatal(err)
	}
	want := []engine.Arch{engine.ArchX86, engine.ArchARM64, engine.ArchMIPS}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if _, err := ParseArches("x86,z80"); !errors.Is(err, engine.ErrUnsupported) {
		t.Errorf("z80 err = %v", err)
	}
	if got, _ := ParseArches(""); got != nil {
		t.Errorf("empty list = %v", got)
	}
}
