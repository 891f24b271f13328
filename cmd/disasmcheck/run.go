package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"disasmcheck/internal/config"
	"disasmcheck/internal/output"
	"disasmcheck/internal/platform"
	"disasmcheck/internal/report"
	"disasmcheck/internal/session"
)

// addFlags registers the options shared by run and decode.
func addFlags(fs *flag.FlagSet, opts *config.Options) *string {
	fs.BoolVar(&opts.Debug, "debug", false, "debug logging")
	fs.BoolVar(&opts.Quiet, "quiet", false, "errors only")
	fs.BoolVar(&opts.JSON, "json", false, "write JSONL instead of text")
	fs.IntVar(&opts.MaxSteps, "max-steps", 0, "per-context instruction cap (0 = engine default)")
	return fs.String("arch", "", "comma separated architectures (default: all)")
}

func setup(opts *config.Options, arches string) (*zap.Logger, error) {
	var err error
	if opts.Arches, err = config.ParseArches(arches); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return config.NewLogger(opts.Debug, opts.Quiet)
}

func cmdRun(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	opts := config.Options{BaseAddr: session.BaseAddress}
	arches := addFlags(fs, &opts)
	outDir := fs.String("out", "", "also write report.txt, results.jsonl and asm/ to this directory")
	strict := fs.Bool("strict", false, "exit non-zero when a platform fails for a reason other than open or empty decode")

	if err := fs.Parse(args); err != nil {
		return err
	}
	log, err := setup(&opts, *arches)
	if err != nil {
		return err
	}
	defer log.Sync()

	platforms := platform.Filter(opts.Arches...)
	if len(platforms) == 0 {
		return fmt.Errorf("no platforms match --arch %q", *arches)
	}

	mgr := session.NewManager(session.NewEngine(opts.EngineOptions()), opts.BaseAddr, log)
	outcomes := session.NewRunner(mgr, log).Run(platforms)
	entries := session.Entries(outcomes)

	if opts.JSON {
		err = report.WriteJSON(stdout, entries...)
	} else {
		err = report.WriteText(stdout, entries...)
	}
	if err != nil {
		return err
	}

	if *outDir != "" {
		if err := writeArtifacts(*outDir, entries); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", *outDir)
	}

	sum := session.Summarize(outcomes)
	log.Info("run complete",
		zap.Int("platforms", sum.Total()),
		zap.Int("decoded", sum.Decoded),
		zap.Int("empty", sum.Empty),
		zap.Int("unsupported", sum.Unsupported),
		zap.Int("failed", sum.Failed))
	if *strict && sum.Failed > 0 {
		return fmt.Errorf("%d of %d platforms failed", sum.Failed, sum.Total())
	}
	return nil
}

func writeArtifacts(dir string, entries []report.Entry) error {
	if err := output.WriteReport(dir, entries); err != nil {
		return err
	}
	for _, e := range entries {
		if err := output.WriteBin(dir, e.Desc.Label, e.Desc.Code); err != nil {
			return err
		}
		if e.Kind != report.KindDecoded {
			continue
		}
		if err := output.WriteASM(dir, e.Desc.Label, e.Report.Lines); err != nil {
			return err
		}
	}
	return nil
}
