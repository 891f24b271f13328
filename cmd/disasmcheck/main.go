package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = cmdRun(os.Args[2:], os.Stdout)
	case "list":
		err = cmdList(os.Args[2:], os.Stdout)
	case "decode":
		err = cmdDecode(os.Args[2:], os.Stdout)
	case "graph":
		err = cmdGraph(os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	printUsage(os.Stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `disasmcheck: multi-architecture disassembler conformance harness

Usage:
  disasmcheck run    [--json] [--arch x86,arm,...] [--out <dir>] [--strict]   Decode every registry platform
  disasmcheck list   [--arch x86,arm,...]                                    List registry platforms
  disasmcheck decode --arch <a> [--mode <m,...>] (--hex <bytes> | --elf <path> [--symbol <name>])
                     [--addr <n>] [--count <n>] [--step]                     Decode ad-hoc bytes
  disasmcheck graph  --out <dir> [--in <results.jsonl>]                       Write dispatch and CFG DOT files

Flags:
  --debug               Debug logging
  --quiet               Errors only
  --max-steps <n>       Per-context instruction cap
`)
}
