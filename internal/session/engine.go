package session

import "disasmcheck/internal/engine"

// Engine opens decoding sessions. The production implementation wraps
// package engine; tests substitute fakes that count calls.
type Engine interface {
	Open(arch engine.Arch, mode engine.Mode) (Decoder, error)
}

// Decoder is an open session bound to one arch/mode pair.
type Decoder interface {
	// DecodeAll returns a nil Buffer when n == 0.
	DecodeAll(code []byte, addr uint64, count int) (Buffer, int, error)
	Close() error
}

// Buffer is an engine-owned instruction sequence, released exactly once.
type Buffer interface {
	Insts() []engine.Inst
	Release()
}

// NewEngine returns the Engine backed by package engine.
func NewEngine(opts engine.Options) Engine { return realEngine{opts: opts} }

type realEngine struct{ opts engine.Options }

func (e realEngine) Open(arch engine.Arch, mode engine.Mode) (Decoder, error) {
	ctx, err := engine.OpenWithOptions(arch, mode, e.opts)
	if err != nil {
		return nil, err
	}
	return realDecoder{ctx}, nil
}

type realDecoder struct{ ctx *engine.Context }

func (d realDecoder) DecodeAll(code []byte, addr uint64, count int) (Buffer, int, error) {
	res, n, err := d.ctx.DecodeAll(code, addr, count)
	if err != nil || n == 0 {
		return nil, n, err
	}
	return res, n, nil
}

func (d realDecoder) Close() error { return d.ctx.Close() }
