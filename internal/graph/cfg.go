package graph

import (
	"fmt"
	"sort"

	"github.com/zboralski/lattice"

	"disasmcheck/internal/engine"
	"disasmcheck/internal/report"
)

// Func is one decoded instruction stream to turn into a CFG.
type Func struct {
	Name  string
	Arch  engine.Arch
	Lines []report.Line
}

// BuildCFG constructs a lattice.CFGGraph with one FuncCFG per stream.
func BuildCFG(funcs []Func) *lattice.CFGGraph {
	cg := &lattice.CFGGraph{}
	for _, f := range funcs {
		lcfg, _ := BuildFuncCFG(f)
		cg.Funcs = append(cg.Funcs, lcfg)
	}
	return cg
}

// BuildFuncCFG builds the control flow graph of f and returns it with its
// block count. The algorithm:
//  1. Find block leaders: index 0, branch targets, instructions after terminators.
//  2. Partition instructions into blocks by leaders.
//  3. Compute successor edges from each block's last instruction.
//
// Calls stay inside their block and are recorded as call sites.
func BuildFuncCFG(f Func) (*lattice.FuncCFG, int) {
	lcfg := &lattice.FuncCFG{Name: f.Name}
	lines := f.Lines
	if len(lines) == 0 {
		return lcfg, 0
	}

	start := lines[0].Addr
	last := lines[len(lines)-1]
	end := last.Addr + uint64(last.Size)

	addrToIdx := make(map[uint64]int, len(lines))
	branches := make([]*Branch, len(lines))
	for i, l := range lines {
		addrToIdx[l.Addr] = i
		branches[i] = Classify(f.Arch, l)
	}
	inFunc := func(b *Branch) (int, bool) {
		if !b.HasTarget || b.Target < start || b.Target >= end {
			return 0, false
		}
		idx, ok := addrToIdx[b.Target]
		return idx, ok
	}

	// Pass 1: leaders.
	leaders := map[int]bool{0: true}
	for i, b := range branches {
		if !b.Terminates() {
			continue
		}
		if i+1 < len(lines) {
			leaders[i+1] = true
		}
		if idx, ok := inFunc(b); ok && !b.IsRet {
			leaders[idx] = true
		}
	}
	sorted := make([]int, 0, len(leaders))
	for idx := range leaders {
		sorted = append(sorted, idx)
	}
	sort.Ints(sorted)

	// Pass 2: partition.
	leaderToBlock := make(map[int]int, len(sorted))
	for i, s := range sorted {
		e := len(lines)
		if i+1 < len(sorted) {
			e = sorted[i+1]
		}
		leaderToBlock[s] = i
		lcfg.Blocks = append(lcfg.Blocks, &lattice.BasicBlock{ID: i, Start: s, End: e})
	}

	// Pass 3: successors and call sites.
	for _, blk := range lcfg.Blocks {
		for idx := blk.Start; idx < blk.End; idx++ {
			if b := branches[idx]; b != nil && b.IsCall {
				blk.Calls = append(blk.Calls, lattice.CallSite{Offset: idx, Callee: calleeName(b, lines[idx])})
			}
		}

		b := branches[blk.End-1]
		next, hasNext := leaderToBlock[blk.End]
		switch {
		case !b.Terminates():
			if hasNext {
				blk.Succs = append(blk.Succs, lattice.Successor{BlockID: next})
			} else {
				blk.Term = true
			}
		case b.IsRet:
			blk.Term = true
		case b.Cond:
			if idx, ok := inFunc(b); ok {
				blk.Succs = append(blk.Succs, lattice.Successor{BlockID: leaderToBlock[idx], Cond: "T"})
			}
			if hasNext {
				blk.Succs = append(blk.Succs, lattice.Successor{BlockID: next, Cond: "F"})
			}
		default:
			if idx, ok := inFunc(b); ok {
				blk.Succs = append(blk.Succs, lattice.Successor{BlockID: leaderToBlock[idx]})
			} else {
				// jump out of the buffer or through a register
				blk.Term = true
			}
		}
	}
	return lcfg, len(lcfg.Blocks)
}

func calleeName(b *Branch, l report.Line) string {
	if b.HasTarget {
		return fmt.Sprintf("0x%x", b.Target)
	}
	if l.Operands != "" {
		return l.Operands
	}
	return l.Mnemonic
}
