// Package config holds run options and logger construction.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"disasmcheck/internal/engine"
)

var ErrConflictingFlags = errors.New("config: -debug and -quiet are mutually exclusive")

// Options contains the settings shared by the run and decode commands.
type Options struct {
	Debug    bool          // debug logging
	Quiet    bool          // errors only
	JSON     bool          // JSONL instead of the text report
	Arches   []engine.Arch // restrict the registry; empty means all
	BaseAddr uint64        // address of the first code byte
	MaxSteps int           // per-context instruction ceiling; 0 = engine default
}

// Validate rejects contradictory option combinations.
func (o Options) Validate() error {
	if o.Debug && o.Quiet {
		return ErrConflictingFlags
	}
	if o.MaxSteps < 0 {
		return fmt.Errorf("config: negative max steps %d", o.MaxSteps)
	}
	return nil
}

// EngineOptions returns the engine settings derived from o.
func (o Options) EngineOptions() engine.Options {
	return engine.Options{MaxSteps: o.MaxSteps}
}

// ParseArches parses a comma separated architecture list such as "x86,arm".
func ParseArches(s string) ([]engine.Arch, error) {
	var out []engine.Arch
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		a, err := engine.ParseArch(name)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// NewLogger creates a console logger on stderr. debug lowers the level to
// Debug, quiet raises it to Error. Levels are colored when stderr is a
// terminal.
func NewLogger(debug, quiet bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(Level(debug, quiet))
	cfg.DisableStacktrace = true
	cfg.DisableCaller = !debug
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = LevelEncoder(term.IsTerminal(int(os.Stderr.Fd())))
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("config: build logger: %w", err)
	}
	return log, nil
}

// Level maps the debug and quiet flags to a log level.
func Level(debug, quiet bool) zapcore.Level {
	switch {
	case debug:
		return zapcore.DebugLevel
	case quiet:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// LevelEncoder picks the colored level encoder for interactive output.
func LevelEncoder(tty bool) zapcore.LevelEncoder {
	if tty {
		return zapcore.CapitalColorLevelEncoder
	}
	return zapcore.CapitalLevelEncoder
}
