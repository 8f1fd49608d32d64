package extract

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/nlpingest/pkg/nlpingest/nlperr"
)

type outcome[R any] struct {
	value    R
	err      error
	panicked bool
}

// run executes fn on a session checked out from p. The session goes back to
// the pool only after a clean run; any error, panic or abandoned run drops it.
// If ctx ends first the call returns the context error while the inference
// finishes in the background and its session is discarded.
func run[S session, R any](ctx context.Context, p *pool[S], kind, modelName string, fn func(S) (R, error)) (R, error) {
	var zero R
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	s, err := p.acquire()
	if err != nil {
		return zero, &nlperr.InferenceError{Kind: kind, Model: modelName, Err: err}
	}

	if ctx.Done() == nil {
		return finish(p, s, kind, modelName, invoke(s, fn))
	}

	done := make(chan outcome[R], 1)
	go func() {
		done <- invoke(s, fn)
	}()

	select {
	case out := <-done:
		return finish(p, s, kind, modelName, out)
	case <-ctx.Done():
		go func() {
			<-done
			p.discard(s)
		}()
		log.WithFields(logrus.Fields{"kind": kind, "model": modelName}).
			Warn("Inference abandoned, session discarded")
		return zero, ctx.Err()
	}
}

func invoke[S session, R any](s S, fn func(S) (R, error)) (out outcome[R]) {
	defer func() {
		if r := recover(); r != nil {
			out.err = fmt.Errorf("panic: %v", r)
			out.panicked = true
		}
	}()
	out.value, out.err = fn(s)
	return out
}

func finish[S session, R any](p *pool[S], s S, kind, modelName string, out outcome[R]) (R, error) {
	if out.err != nil {
		p.discard(s)
		log.WithFields(logrus.Fields{"kind": kind, "model": modelName, "panic": out.panicked}).
			WithError(out.err).Error("Inference failed")
		var zero R
		return zero, &nlperr.InferenceError{Kind: kind, Model: modelName, Err: out.err}
	}
	p.release(s)
	return out.value, nil
}
