package ingest

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/nlpingest/pkg/nlpingest/store"
)

// DocError records a document that failed in a batch.
type DocError struct {
	Index int
	ID    string
	Err   error
}

func (e DocError) Error() string {
	return fmt.Sprintf("document %d (%s): %v", e.Index, e.ID, e.Err)
}

func (e DocError) Unwrap() error {
	return e.Err
}

// Report summarizes a batch run.
type Report struct {
	Processed int
	Failures  []DocError
}

// Runner pushes batches of documents through a pipeline.
type Runner struct {
	Pipeline *Pipeline
	// Workers bounds concurrent documents. Zero means GOMAXPROCS.
	Workers int
	// ContinueOnError collects failures instead of stopping the batch.
	ContinueOnError bool
	// OnDone, when set, is called with every enriched document. It may be
	// called from several goroutines at once.
	OnDone func(ctx context.Context, doc *Document) error
}

// Run processes docs. Documents without an id get a new ULID first.
// Without ContinueOnError the first failure cancels the rest and is returned.
// A cancelled ctx ends the batch with the context error.
func (r *Runner) Run(ctx context.Context, docs []*Document) (Report, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	for _, doc := range docs {
		if doc.ID() == "" {
			doc.SetID(store.NewID())
		}
	}

	var (
		mu     sync.Mutex
		report Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, doc := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			err := r.Pipeline.Execute(gctx, doc)
			if err == nil && r.OnDone != nil {
				err = r.OnDone(gctx, doc)
			}

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				report.Processed++
				return nil
			}
			failure := DocError{Index: i, ID: doc.ID(), Err: err}
			if !r.ContinueOnError {
				return failure
			}
			log.WithFields(logrus.Fields{"id": doc.ID(), "index": i}).WithError(err).Warn("Document failed")
			report.Failures = append(report.Failures, failure)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	slices.SortFunc(report.Failures, func(a, b DocError) int { return a.Index - b.Index })
	return report, err
}
