package session

import (
	"errors"
	"fmt"

	"disasmcheck/internal/engine"
)

// fakeEngine records every call crossing the engine boundary.
type fakeEngine struct {
	n        int   // instructions DecodeAll reports
	openErr  error // returned by Open when set
	decErr   error
	closeErr error

	opens, closes, releases int
	open                    int // currently open sessions
}

func (f *fakeEngine) Open(arch engine.Arch, mode engine.Mode) (Decoder, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opens++
	f.open++
	return &fakeDecoder{f: f}, nil
}

type fakeDecoder struct {
	f      *fakeEngine
	closed bool
}

func (d *fakeDecoder) DecodeAll(code []byte, addr uint64, count int) (Buffer, int, error) {
	if d.f.decErr != nil {
		return nil, 0, d.f.decErr
	}
	if d.f.n == 0 {
		return nil, 0, nil
	}
	insts := make([]engine.Inst, d.f.n)
	for i := range insts {
		insts[i] = engine.Inst{Addr: addr + uint64(i), Size: 1, Bytes: []byte{code[i]}, Mnemonic: fmt.Sprintf("op%d", i)}
	}
	return &fakeBuffer{f: d.f, insts: insts}, d.f.n, nil
}

func (d *fakeDecoder) Close() error {
	if d.closed {
		return errors.New("fake: closed twice")
	}
	d.closed = true
	d.f.closes++
	d.f.open--
	return d.f.closeErr
}

type fakeBuffer struct {
	f        *fakeEngine
	insts    []engine.Inst
	released bool
}

func (b *fakeBuffer) Insts() []engine.Inst {
	if b.released {
		panic(engine.ErrUseAfterRelease)
	}
	return b.insts
}

func (b *fakeBuffer) Release() {
	if b.released {
		panic(engine.ErrDoubleRelease)
	}
	b.released = true
	b.f.releases++
}
