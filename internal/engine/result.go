package engine

import "sync"

// Result is an engine-allocated instruction buffer. Ownership passes to the
// caller when DecodeAll returns; Release hands the buffer back. Reading or
// releasing a released Result panics.
type Result struct {
	insts    []Inst
	released bool
}

// Insts returns the decoded instructions. The slice is only valid until
// Release.
func (r *Result) Insts() []Inst {
	if r.released {
		panic(ErrUseAfterRelease)
	}
	return r.insts
}

// Len returns the number of instructions in the buffer.
func (r *Result) Len() int {
	if r.released {
		panic(ErrUseAfterRelease)
	}
	return len(r.insts)
}

// Released reports whether Release has been called.
func (r *Result) Released() bool { return r.released }

// Release returns the buffer to the engine.
func (r *Result) Release() {
	if r.released {
		panic(ErrDoubleRelease)
	}
	r.released = true
	putBuf(r.insts)
	r.insts = nil
}

const pooledCap = 64

var bufPool = sync.Pool{
	New: func() any {
		s := make([]Inst, 0, pooledCap)
		return &s
	},
}

func getBuf() []Inst {
	return (*bufPool.Get().(*[]Inst))[:0]
}

func putBuf(s []Inst) {
	if cap(s) == 0 || cap(s) > 4*pooledCap {
		return
	}
	clear(s[:cap(s)])
	s = s[:0]
	bufPool.Put(&s)
}
