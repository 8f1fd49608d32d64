package extract

import (
	"sync/atomic"
)

// session is the part of model.NameFinder and model.Tagger the pool needs.
type session interface {
	Reset()
}

// PoolStats reports how sessions of one model were used.
type PoolStats struct {
	Created   int64 // sessions constructed
	Reused    int64 // checkouts served from the idle list
	Discarded int64 // sessions dropped after a failed, abandoned or panicking run
	Idle      int   // sessions currently waiting in the pool
}

// pool keeps idle sessions of one model. Checkout never blocks: when no idle
// session is available a fresh one is built. A nil idle channel disables
// pooling so every call gets its own session.
type pool[S session] struct {
	idle    chan S
	newFunc func() (S, error)

	created   atomic.Int64
	reused    atomic.Int64
	discarded atomic.Int64
}

func newPool[S session](size int, newFunc func() (S, error)) *pool[S] {
	p := &pool[S]{newFunc: newFunc}
	if size > 0 {
		p.idle = make(chan S, size)
	}
	return p
}

// acquire hands out a session for exclusive use by the caller.
func (p *pool[S]) acquire() (S, error) {
	select {
	case s := <-p.idle:
		p.reused.Add(1)
		return s, nil
	default:
	}
	s, err := p.newFunc()
	if err == nil {
		p.created.Add(1)
	}
	return s, err
}

// release resets s and keeps it if there is room.
func (p *pool[S]) release(s S) {
	s.Reset()
	select {
	case p.idle <- s:
	default:
	}
}

// discard drops a session whose run-scoped state can no longer be trusted.
func (p *pool[S]) discard(S) {
	p.discarded.Add(1)
}

func (p *pool[S]) stats() PoolStats {
	return PoolStats{
		Created:   p.created.Load(),
		Reused:    p.reused.Load(),
		Discarded: p.discarded.Load(),
		Idle:      len(p.idle),
	}
}
