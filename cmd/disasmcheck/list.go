package main

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"disasmcheck/internal/config"
	"disasmcheck/internal/engine"
	"disasmcheck/internal/platform"
)

func cmdList(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	arches := fs.String("arch", "", "comma separated architectures (default: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter, err := config.ParseArches(*arches)
	if err != nil {
		return err
	}

	major, minor := engine.Version()
	fmt.Fprintf(stdout, "engine api %d.%d\n", major, minor)

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ARCH\tMODE\tSIZE\tBACKEND\tPLATFORM")
	for _, d := range platform.Filter(filter...) {
		backend := "no"
		if engine.Supports(d.Arch) {
			backend = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", d.Arch, d.Mode, d.Size, backend, d.Label)
	}
	return tw.Flush()
}
