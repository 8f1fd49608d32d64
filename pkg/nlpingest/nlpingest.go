package nlpingest

import (
	"context"
	"fmt"

	"github.com/cognicore/nlpingest/internal/logger"
	"github.com/cognicore/nlpingest/pkg/nlpingest/config"
	"github.com/cognicore/nlpingest/pkg/nlpingest/extract"
	"github.com/cognicore/nlpingest/pkg/nlpingest/ingest"
	"github.com/cognicore/nlpingest/pkg/nlpingest/modelstore"
	"github.com/cognicore/nlpingest/pkg/nlpingest/store"
	"github.com/cognicore/nlpingest/pkg/nlpingest/store/sqlite"
)

var log = logger.Get()

// Service wires models, engine, pipeline and sink from one configuration.
type Service struct {
	cfg      *config.Config
	models   *modelstore.Store
	engine   *extract.Engine
	pipeline *ingest.Pipeline
	sink     store.Sink
}

// Options configures a Service
type Options struct {
	Config *config.Config
	// Sink overrides the sink named in the configuration.
	Sink store.Sink
}

// Open loads every configured model and builds the pipeline. It fails when
// no model could be loaded or the pipeline configuration is invalid.
func Open(ctx context.Context, opts Options) (*Service, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	if err := logger.SetFormat(cfg.Log.Format); err != nil {
		return nil, err
	}

	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}

	models, err := modelstore.Load(ctx, cfg.ModelDir, cfg.ModelSpecs(), cfg.StoreOptions())
	if err != nil {
		return nil, err
	}
	engine := extract.New(models, engineOpts)

	pipeline, err := ingest.NewPipeline(engine, cfg.Pipeline)
	if err != nil {
		return nil, err
	}

	s := &Service{cfg: cfg, models: models, engine: engine, pipeline: pipeline, sink: opts.Sink}
	if s.sink == nil && cfg.Sink.SQLite != "" {
		if s.sink, err = sqlite.Open(ctx, cfg.Sink.SQLite); err != nil {
			return nil, fmt.Errorf("open sink %s: %w", cfg.Sink.SQLite, err)
		}
	}

	log.WithField("kinds", models.AvailableEntityKinds()).
		WithField("pos", engine.HasPOS()).
		WithField("load_time", models.LoadTime()).
		Info("Service ready")
	return s, nil
}

// Close releases the sink.
func (s *Service) Close() error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Close()
}

// Engine returns the extraction engine.
func (s *Service) Engine() *extract.Engine { return s.engine }

// Models returns the loaded model store.
func (s *Service) Models() *modelstore.Store { return s.models }

// Pipeline returns the configured pipeline.
func (s *Service) Pipeline() *ingest.Pipeline { return s.pipeline }

// Sink returns the document sink, or nil when none is configured.
func (s *Service) Sink() store.Sink { return s.sink }

// Process runs the pipeline over docs and stores each enriched document in
// the sink. With continueOnError failed documents are reported instead of
// stopping the batch.
func (s *Service) Process(ctx context.Context, docs []map[string]any, continueOnError bool) ([]*ingest.Document, ingest.Report, error) {
	batch := make([]*ingest.Document, len(docs))
	for i, fields := range docs {
		batch[i] = ingest.NewDocument(fields)
	}

	r := &ingest.Runner{
		Pipeline:        s.pipeline,
		Workers:         s.cfg.Workers,
		ContinueOnError: continueOnError,
	}
	if s.sink != nil {
		entitiesField := s.entitiesField()
		r.OnDone = func(ctx context.Context, doc *ingest.Document) error {
			rec, err := store.FromFields(doc.ID(), doc.Fields(), entitiesField)
			if err != nil {
				return err
			}
			_, err = s.sink.Put(ctx, rec)
			return err
		}
	}

	report, err := r.Run(ctx, batch)
	return batch, report, err
}

// entitiesField is the target of the first entity processor.
func (s *Service) entitiesField() string {
	for _, p := range s.pipeline.Processors() {
		if ep, ok := p.(*ingest.EntityProcessor); ok {
			return ep.TargetField()
		}
	}
	return ""
}

// Describe summarizes what the service can extract.
func (s *Service) Describe() Description {
	d := Description{
		EntityKinds: s.models.AvailableEntityKinds(),
		POS:         s.engine.HasPOS(),
		Failures:    make([]string, 0, len(s.models.Failures())),
	}
	for _, f := range s.models.Failures() {
		d.Failures = append(d.Failures, f.Error())
	}
	return d
}

// Description lists the loaded capabilities.
type Description struct {
	EntityKinds []string
	POS         bool
	Failures    []string
}
