package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"disasmcheck/internal/engine"
	"disasmcheck/internal/graph"
	"disasmcheck/internal/output"
	"disasmcheck/internal/platform"
	"disasmcheck/internal/report"
	"disasmcheck/internal/session"
)

func cmdGraph(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("graph", flag.ContinueOnError)
	outDir := fs.String("out", "", "output directory")
	inPath := fs.String("in", "", "results.jsonl from a previous run (default: run the registry)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outDir == "" {
		return errors.New("--out is required")
	}

	entries, err := graphEntries(*inPath)
	if err != nil {
		return err
	}

	dispatch := graph.BuildDispatch(entries)
	if err := output.WriteDOT(*outDir, "dispatch", render.DOT(dispatch, "dispatch")); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote dispatch.dot (%d nodes, %d edges)\n", len(dispatch.Nodes), len(dispatch.Edges))

	cfgs := graph.BuildCFG(graph.Funcs(entries))
	if err := output.WriteDOT(*outDir, "cfg", render.DOTCFG(cfgs, "cfg")); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote cfg.dot (%d platforms, %d blocks)\n", len(cfgs.Funcs), countBlocks(cfgs))
	return nil
}

func graphEntries(inPath string) ([]report.Entry, error) {
	if inPath == "" {
		mgr := session.NewManager(session.NewEngine(engine.Options{}), session.BaseAddress, nil)
		return session.Entries(session.NewRunner(mgr, nil).Run(platform.Registry())), nil
	}

	f, err := os.Open(inPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := report.ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", inPath, err)
	}

	entries := make([]report.Entry, 0, len(recs))
	for _, rec := range recs {
		d, err := rec.Descriptor()
		if err != nil {
			return nil, err
		}
		e := report.Entry{Desc: d, Kind: kindOf(rec.Kind)}
		if e.Kind == report.KindDecoded {
			e.Report = report.Report{Lines: rec.Insts, NextAddr: rec.NextAddr}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func kindOf(s string) report.Kind {
	for _, k := range []report.Kind{report.KindDecoded, report.KindEmpty, report.KindUnsupported} {
		if k.String() == s {
			return k
		}
	}
	return report.KindFailed
}

func countBlocks(g *lattice.CFGGraph) int {
	n := 0
	for _, f := range g.Funcs {
		n += len(f.Blocks)
	}
	return n
}
