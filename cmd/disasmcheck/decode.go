package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"disasmcheck/internal/config"
	"disasmcheck/internal/elfx"
	"disasmcheck/internal/engine"
	"disasmcheck/internal/platform"
	"disasmcheck/internal/report"
	"disasmcheck/internal/session"
)

// parseHex accepts "8d4c32", "8d 4c 32", "0x8d 0x4c,0x32" and "\x8d\x4c".
func parseHex(s string) ([]byte, error) {
	r := strings.NewReplacer("0x", "", "0X", "", `\x`, "", " ", "", ",", "", "\n", "", "\t", "")
	b, err := hex.DecodeString(r.Replace(s))
	if err != nil {
		return nil, fmt.Errorf("--hex: %w", err)
	}
	return b, nil
}

func cmdDecode(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	var opts config.Options
	arch := addFlags(fs, &opts)
	mode := fs.String("mode", "", "mode flags, e.g. 32,att or 64,be")
	hexCode := fs.String("hex", "", "code bytes in hex")
	elfPath := fs.String("elf", "", "ELF file to take code from (.text unless --symbol)")
	symbol := fs.String("symbol", "", "decode this ELF symbol")
	addrFlag := fs.String("addr", "", "address of the first byte (default 0x1000, or the ELF address)")
	count := fs.Int("count", 0, "max instructions (0 = all)")
	step := fs.Bool("step", false, "decode one instruction at a time")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*hexCode == "") == (*elfPath == "") {
		return errors.New("exactly one of --hex and --elf is required")
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	log, err := config.NewLogger(opts.Debug, opts.Quiet)
	if err != nil {
		return err
	}
	defer log.Sync()

	d, base, err := loadDescriptor(*hexCode, *elfPath, *symbol, *arch, *mode)
	if err != nil {
		return err
	}
	if *addrFlag != "" {
		if base, err = strconv.ParseUint(*addrFlag, 0, 64); err != nil {
			return fmt.Errorf("--addr: %w", err)
		}
	}
	log.Debug("decode",
		zap.String("platform", d.Label),
		zap.Stringer("arch", d.Arch),
		zap.Stringer("mode", d.Mode),
		zap.Int("size", d.Size),
		zap.Uint64("addr", base))

	if *step {
		return stepDecode(stdout, log, d, base, *count, opts.EngineOptions())
	}

	eng := session.NewEngine(opts.EngineOptions())
	if *count > 0 {
		eng = countLimited{eng, *count}
	}
	o := session.NewManager(eng, base, log).RunOne(d)
	if opts.JSON {
		return report.WriteJSON(stdout, o.Entry())
	}
	return report.WriteText(stdout, o.Entry())
}

func loadDescriptor(hexCode, elfPath, symbol, arch, mode string) (platform.Descriptor, uint64, error) {
	if hexCode != "" {
		if arch == "" {
			return platform.Descriptor{}, 0, errors.New("--arch is required with --hex")
		}
		a, err := engine.ParseArch(arch)
		if err != nil {
			return platform.Descriptor{}, 0, err
		}
		m, err := engine.ParseMode(mode)
		if err != nil {
			return platform.Descriptor{}, 0, err
		}
		code, err := parseHex(hexCode)
		if err != nil {
			return platform.Descriptor{}, 0, err
		}
		label := fmt.Sprintf("%s/%s", a, m)
		return platform.Descriptor{Arch: a, Mode: m, Code: code, Size: len(code), Label: label}, session.BaseAddress, nil
	}

	ef, err := elfx.Open(elfPath)
	if err != nil {
		return platform.Descriptor{}, 0, err
	}
	defer ef.Close()

	var d platform.Descriptor
	var base uint64
	if symbol != "" {
		d, base, err = ef.SymbolDescriptor(symbol)
	} else {
		d, base, err = ef.TextDescriptor()
	}
	if err != nil {
		return platform.Descriptor{}, 0, err
	}
	// explicit flags override what the ELF header implies
	if arch != "" {
		if d.Arch, err = engine.ParseArch(arch); err != nil {
			return platform.Descriptor{}, 0, err
		}
	}
	if mode != "" {
		if d.Mode, err = engine.ParseMode(mode); err != nil {
			return platform.Descriptor{}, 0, err
		}
	}
	return d, base, nil
}

// stepDecode walks the buffer with DecodeOne, printing each instruction as
// it is produced. It stops at the first undecodable position.
func stepDecode(w io.Writer, log *zap.Logger, d platform.Descriptor, addr uint64, count int, opts engine.Options) error {
	ctx, err := engine.OpenWithOptions(d.Arch, d.Mode, opts)
	if err != nil {
		return err
	}
	defer ctx.Close()
	log.Debug("step",
		zap.Stringer("arch", ctx.Arch()),
		zap.Stringer("mode", ctx.Mode()),
		zap.Int("count", count))

	off, n := 0, 0
	for off < len(d.Code) && (count == 0 || n < count) {
		inst, err := ctx.DecodeOne(d.Code[off:], addr+uint64(off))
		if err != nil {
			fmt.Fprintf(w, "0x%x:\t(stop: %v)\n", addr+uint64(off), err)
			return nil
		}
		fmt.Fprintf(w, "0x%x:\t%s\t\t%s\n", inst.Addr, inst.Mnemonic, inst.Operands)
		off += inst.Size
		n++
	}
	fmt.Fprintf(w, "0x%x:\n", addr+uint64(off))
	return nil
}

// countLimited caps DecodeAll at n instructions.
type countLimited struct {
	session.Engine
	n int
}

func (c countLimited) Open(arch engine.Arch, mode engine.Mode) (session.Decoder, error) {
	dec, err := c.Engine.Open(arch, mode)
	if err != nil {
		return nil, err
	}
	return limitedDecoder{dec, c.n}, nil
}

type limitedDecoder struct {
	session.Decoder
	n int
}

func (l limitedDecoder) DecodeAll(code []byte, addr uint64, _ int) (session.Buffer, int, error) {
	return l.Decoder.DecodeAll(code, addr, l.n)
}
