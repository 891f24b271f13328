// Package graph exports the harness's dispatch table and the control flow
// of each decoded buffer as lattice graphs.
package graph

import (
	"fmt"

	"github.com/zboralski/lattice"

	"disasmcheck/internal/report"
)

const root = "registry"

// BuildDispatch returns the registry -> platform -> arch/mode -> outcome graph.
func BuildDispatch(entries []report.Entry) *lattice.Graph {
	g := &lattice.Graph{Nodes: []string{root}}
	seen := map[string]bool{root: true}
	node := func(n string) {
		if !seen[n] {
			seen[n] = true
			g.Nodes = append(g.Nodes, n)
		}
	}
	for _, e := range entries {
		label := e.Desc.Label
		backend := fmt.Sprintf("%s/%s", e.Desc.Arch, e.Desc.Mode)
		kind := e.Kind.String()
		node(label)
		node(backend)
		node(kind)
		g.Edges = append(g.Edges,
			lattice.Edge{Caller: root, Callee: label},
			lattice.Edge{Caller: label, Callee: backend},
			lattice.Edge{Caller: backend, Callee: kind},
		)
	}
	g.Dedup()
	return g
}

// Funcs selects the decoded entries as CFG inputs.
func Funcs(entries []report.Entry) []Func {
	var out []Func
	for _, e := range entries {
		if e.Kind != report.KindDecoded {
			continue
		}
		out = append(out, Func{Name: e.Desc.Label, Arch: e.Desc.Arch, Lines: e.Report.Lines})
	}
	return out
}
