package graph

import (
	"strings"
	"testing"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"disasmcheck/internal/engine"
	"disasmcheck/internal/platform"
	"disasmcheck/internal/report"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		arch engine.Arch
		mn   string
		ops  string
		want *Branch
	}{
		{engine.ArchX86, "ret", "", &Branch{IsRet: true}},
		{engine.ArchX86, "call", "0x2000", &Branch{IsCall: true, Target: 0x2000, HasTarget: true}},
		{engine.ArchX86, "jne", "0x1010", &Branch{Cond: true, Target: 0x1010, HasTarget: true}},
		{engine.ArchX86, "add", "eax, ebx", nil},
		{engine.ArchARM, "bx", "lr", &Branch{IsRet: true}},
		{engine.ArchARM, "pop.w", "{r11, pc}", &Branch{IsRet: true}},
		{engine.ArchARM, "bne", "#0x1008", &Branch{Cond: true, Target: 0x1008, HasTarget: true}},
		{engine.ArchARM, "bic", "r0, r0, #1", nil},
		{engine.ArchARM64, "cbz", "x0, .+0x10", &Branch{Cond: true, Target: 0x1010, HasTarget: true}},
		{engine.ArchMIPS, "jr", "$ra", &Branch{IsRet: true}},
		{engine.ArchMIPS, "jal", "0x40025c", &Branch{IsCall: true, Target: 0x40025c, HasTarget: true}},
		{engine.Arch6502, "bne", "$1010", &Branch{Cond: true, Target: 0x1010, HasTarget: true}},
		{engine.Arch6502, "rts", "", &Branch{IsRet: true}},
		{engine.ArchPPC, "blr", "", &Branch{IsRet: true}},
	}
	for _, tt := range tests {
		got := Classify(tt.arch, report.Line{Addr: 0x1000, Size: 4, Mnemonic: tt.mn, Operands: tt.ops})
		if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Errorf("%s %s %s = %+v, want %+v", tt.arch, tt.mn, tt.ops, got, tt.want)
		}
	}
}

func TestBuildFuncCFG(t *testing.T) {
	// B0: 0x1000 mov; 0x1004 bl 0x1104; 0x1008 cbz -> B2
	// B1: 0x100c mov; 0x1010 b -> B4
	// B2: 0x1014 ret
	// B3: 0x1018 nop; 0x101c nop (falls into B4)
	// B4: 0x1020 ret
	line := func(addr uint64, mn, ops string) report.Line {
		return report.Line{Addr: addr, Size: 4, Mnemonic: mn, Operands: ops}
	}
	f := Func{
		Name: "arm64",
		Arch: engine.ArchARM64,
		Lines: []report.Line{
			line(0x1000, "mov", "x0, #0"),
			line(0x1004, "bl", ".+0x100"),
			line(0x1008, "cbz", "x0, .+0xc"),
			line(0x100c, "mov", "x1, #1"),
			line(0x1010, "b", ".+0x10"),
			line(0x1014, "ret", ""),
			line(0x1018, "nop", ""),
			line(0x101c, "nop", ""),
			line(0x1020, "ret", ""),
		},
	}
	lcfg, n := BuildFuncCFG(f)
	if n != 5 {
		t.Fatalf("got %d blocks, want 5", n)
	}

	b0 := lcfg.Blocks[0]
	if len(b0.Calls) != 1 || b0.Calls[0].Callee != "0x1104" || b0.Calls[0].Offset != 1 {
		t.Errorf("B0 calls = %+v", b0.Calls)
	}
	want := []lattice.Successor{{BlockID: 2, Cond: "T"}, {BlockID: 1, Cond: "F"}}
	if len(b0.Succs) != 2 || b0.Succs[0] != want[0] || b0.Succs[1] != want[1] {
		t.Errorf("B0 succs = %+v", b0.Succs)
	}
	if b1 := lcfg.Blocks[1]; len(b1.Succs) != 1 || b1.Succs[0].BlockID != 4 {
		t.Errorf("B1 succs = %+v", b1.Succs)
	}
	if !lcfg.Blocks[2].Term || !lcfg.Blocks[4].Term {
		t.Error("ret blocks must be terminal")
	}
	// 0x1018 follows a ret: unreachable but still its own block
	if b3 := lcfg.Blocks[3]; b3.Start != 6 || len(b3.Succs) != 1 || b3.Succs[0].BlockID != 4 {
		t.Errorf("B3 = %+v", b3)
	}

	dot := render.DOTCFG(&lattice.CFGGraph{Funcs: []*lattice.FuncCFG{lcfg}}, "cfg")
	if dot == "" {
		t.Error("empty DOT output")
	}
}

func TestBuildFuncCFGEmpty(t *testing.T) {
	lcfg, n := BuildFuncCFG(Func{Name: "none"})
	if n != 0 || len(lcfg.Blocks) != 0 || lcfg.Name != "none" {
		t.Fatalf("got %+v, %d", lcfg, n)
	}
}

func TestBuildDispatch(t *testing.T) {
	d, _ := platform.Lookup("THUMB")
	u, _ := platform.Lookup("ARM-64 (16-bit, unsupported)")
	entries := []report.Entry{
		{Desc: d, Kind: report.KindDecoded},
		{Desc: u, Kind: report.KindUnsupported},
		{Desc: d, Kind: report.KindDecoded},
	}
	g := BuildDispatch(entries)

	seen := make(map[string]int)
	for _, n := range g.Nodes {
		seen[n]++
	}
	for _, n := range []string{"registry", "THUMB", "arm/thumb", "decoded", "arm64/16", "unsupported"} {
		if seen[n] != 1 {
			t.Errorf("node %q appears %d times", n, seen[n])
		}
	}
	found := false
	for _, e := range g.Edges {
		if e.Caller == "arm64/16" && e.Callee == "unsupported" {
			found = true
		}
	}
	if !found {
		t.Error("missing arm64/16 -> unsupported edge")
	}

	dot := render.DOT(g, "dispatch")
	if !strings.Contains(dot, "THUMB") {
		t.Error("DOT output lacks platform label")
	}
}

func TestFuncs(t *testing.T) {
	d, _ := platform.Lookup("THUMB")
	entries := []report.Entry{
		{Desc: d, Kind: report.KindDecoded, Report: report.Report{Lines: []report.Line{{Addr: 0x1000, Size: 2, Mnemonic: "bx", Operands: "lr"}}}},
		{Desc: d, Kind: report.KindEmpty},
	}
	fs := Funcs(entries)
	if len(fs) != 1 || fs[0].Arch != engine.ArchARM || len(fs[0].Lines) != 1 {
		t.Fatalf("Funcs = %+v", fs)
	}
}
