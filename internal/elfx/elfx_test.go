package elfx

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"disasmcheck/internal/engine"
)

// openSelf opens the running test binary, which is an ELF file on Linux.
func openSelf(t *testing.T) *File {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("test binary is not ELF on " + runtime.GOOS)
	}
	path, err := os.Executable()
	if err != nil {
		t.Skip(err)
	}
	ef, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ef.Close() })
	return ef
}

func TestOpenRejectsNonELF(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "notelf")
	if err := os.WriteFile(tmp, []byte("not an ELF file at all"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(tmp)
	if !errors.Is(err, ErrNotELF) {
		t.Fatalf("err = %v, want ErrNotELF", err)
	}
}

func TestTargetMatchesHost(t *testing.T) {
	ef := openSelf(t)
	a, m, err := ef.Target()
	switch runtime.GOARCH {
	case "amd64":
		if err != nil || a != engine.ArchX86 || m != engine.Mode64 {
			t.Fatalf("Target = %s %s %v", a, m, err)
		}
	case "arm64":
		if err != nil || a != engine.ArchARM64 {
			t.Fatalf("Target = %s %s %v", a, m, err)
		}
	default:
		t.Skip("no expectation for " + runtime.GOARCH)
	}
	if _, err := engine.Open(a, m); err != nil {
		t.Fatalf("engine rejects ELF target: %v", err)
	}
}

// openFixture opens testdata/arm-thumb.elf: a 32-bit ARM executable whose
// .text at 0x8060 holds an ARM "bx lr" (_start) followed by the Thumb pair
// "mov r11, sp; bx lr" (thumb_fn, symbol value 0x8065).
func openFixture(t *testing.T) *File {
	t.Helper()
	ef, err := Open(filepath.Join("testdata", "arm-thumb.elf"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ef.Close() })
	return ef
}

func TestFixtureTarget(t *testing.T) {
	ef := openFixture(t)
	a, m, err := ef.Target()
	if err != nil {
		t.Fatal(err)
	}
	if a != engine.ArchARM || m != engine.ModeARM {
		t.Fatalf("Target = %s %s", a, m)
	}
}

func TestTextDescriptor(t *testing.T) {
	ef := openFixture(t)
	d, addr, err := ef.TextDescriptor()
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Validate(); err != nil {
		t.Fatal(err)
	}
	if d.Size != 8 || addr != 0x8060 || d.Label != ".text" {
		t.Fatalf("descriptor %q size %d at 0x%x", d.Label, d.Size, addr)
	}
}

func TestSymbolDescriptorThumb(t *testing.T) {
	ef := openFixture(t)
	d, va, err := ef.SymbolDescriptor("thumb_fn")
	if err != nil {
		t.Fatal(err)
	}
	if va != 0x8064 || !d.Mode.Has(engine.ModeThumb) || d.Label != "thumb_fn" {
		t.Fatalf("descriptor %q mode %s at 0x%x", d.Label, d.Mode, va)
	}
	if diff := cmp.Diff([]byte{0xeb, 0x46, 0x70, 0x47}, d.Code); diff != "" {
		t.Fatalf("code (-want +got):\n%s", diff)
	}

	ctx, err := engine.Open(d.Arch, d.Mode)
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()
	res, n, err := ctx.DecodeAll(d.Code, va, 0)
	if err != nil || n != 2 {
		t.Fatalf("DecodeAll: n=%d err=%v", n, err)
	}
	defer res.Release()
	var got []string
	for _, inst := range res.Insts() {
		got = append(got, inst.String())
	}
	if diff := cmp.Diff([]string{"mov r11, sp", "bx lr"}, got); diff != "" {
		t.Errorf("insts (-want +got):\n%s", diff)
	}
}

func TestSymbolDescriptorARM(t *testing.T) {
	ef := openFixture(t)
	d, va, err := ef.SymbolDescriptor("_start")
	if err != nil {
		t.Fatal(err)
	}
	if va != 0x8060 || d.Mode != engine.ModeARM || d.Size != 4 {
		t.Fatalf("descriptor %q mode %s size %d at 0x%x", d.Label, d.Mode, d.Size, va)
	}

	ctx, err := engine.Open(d.Arch, d.Mode)
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()
	res, n, err := ctx.DecodeAll(d.Code, va, 0)
	if err != nil || n != 1 {
		t.Fatalf("DecodeAll: n=%d err=%v", n, err)
	}
	res.Release()
}

func TestSymbolNotFound(t *testing.T) {
	ef := openFixture(t)
	_, _, err := ef.Symbol("no.such.symbol")
	if !errors.Is(err, ErrNoSymbol) {
		t.Fatalf("err = %v, want ErrNoSymbol", err)
	}
	if _, _, err := ef.SymbolDescriptor("no.such.symbol"); !errors.Is(err, ErrNoSymbol) {
		t.Fatalf("err = %v, want ErrNoSymbol", err)
	}
	if _, _, err := ef.Section(".no_such_section"); !errors.Is(err, ErrNoSection) {
		t.Fatalf("err = %v, want ErrNoSection", err)
	}
}

func TestVAToFileOffset(t *testing.T) {
	ef := openFixture(t)
	off, err := ef.VAToFileOffset(0x8064)
	if err != nil || off != 0x64 {
		t.Fatalf("VAToFileOffset(0x8064) = 0x%x, %v", off, err)
	}
	if _, err := ef.VAToFileOffset(0xDEADBEEFDEADBEEF); !errors.Is(err, ErrNoSegment) {
		t.Fatalf("err = %v, want ErrNoSegment", err)
	}
}

func FuzzELFOpen(f *testing.F) {
	// Seed with a valid ELF header prefix and garbage.
	f.Add([]byte("\x7fELF\x02\x01\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00"))
	f.Add([]byte("not an elf at all"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		tmp := filepath.Join(t.TempDir(), "fuzz.elf")
		if err := os.WriteFile(tmp, data, 0644); err != nil {
			t.Fatal(err)
		}
		ef, err := Open(tmp)
		if err != nil {
			return // expected
		}
		ef.FileSize()
		ef.Target()
		ef.Section(".text")
		ef.Symbol("main")
		ef.VAToFileOffset(0)
		ef.Close()
	})
}
