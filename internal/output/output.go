// Package output writes harness results to a directory.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"disasmcheck/internal/report"
)

// Slug turns a platform label into a file name, e.g.
// "MIPS-32 (Big-endian)" -> "mips-32_big-endian".
func Slug(label string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
			underscore = false
		default:
			if !underscore && b.Len() > 0 {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// WriteReport writes report.txt and results.jsonl for entries.
func WriteReport(dir string, entries []report.Entry) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("output: mkdir: %w", err)
	}
	if err := writeWith(filepath.Join(dir, "report.txt"), func(f *os.File) error {
		return report.WriteText(f, entries...)
	}); err != nil {
		return err
	}
	return writeWith(filepath.Join(dir, "results.jsonl"), func(f *os.File) error {
		return report.WriteJSON(f, entries...)
	})
}

// WriteASM writes the decoded lines of one platform to asm/<slug>.txt.
func WriteASM(dir, label string, lines []report.Line) error {
	path := filepath.Join(dir, "asm", Slug(label)+".txt")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir asm: %w", err)
	}
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "0x%x: % x\t%s %s\n", l.Addr, l.Bytes, l.Mnemonic, l.Operands)
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// WriteBin writes raw code bytes to asm/<slug>.bin.
func WriteBin(dir, label string, code []byte) error {
	path := filepath.Join(dir, "asm", Slug(label)+".bin")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir asm: %w", err)
	}
	return os.WriteFile(path, code, 0644)
}

// WriteDOT writes a rendered graph to <dir>/<name>.dot.
func WriteDOT(dir, name, dot string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("output: mkdir: %w", err)
	}
	path := filepath.Join(dir, name+".dot")
	if err := os.WriteFile(path, []byte(dot), 0644); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}

func writeWith(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("output: %s: %w", path, err)
	}
	return nil
}
