package modelstore

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/nlpingest/internal/logger"
	"github.com/cognicore/nlpingest/pkg/nlpingest/model"
	"github.com/cognicore/nlpingest/pkg/nlpingest/nlperr"
)

var log = logger.Get()

// Spec names one model file to load. For FamilyNER the name is the entity
// kind callers ask for; the single FamilyPOS model may leave it empty.
type Spec struct {
	Family model.Family
	Name   string
	Path   string
}

func (s Spec) label() string {
	if s.Family == model.FamilyPOS {
		return "[pos]"
	}
	return fmt.Sprintf("[%s] %s", s.Family, s.Name)
}

// Options tune loading.
type Options struct {
	// Workers bounds parallel decoding. Zero means GOMAXPROCS.
	Workers int
}

// Store holds the loaded models. It is never modified after Load returns,
// so reads need no locking.
type Store struct {
	entities map[string]*model.Model
	pos      *model.Model
	kinds    []string
	timings  map[string]time.Duration
	failures []nlperr.LoadFailure
	total    time.Duration
}

// Load decodes every configured model, resolving relative paths against dir.
// A model that fails to load is logged and skipped. Load only fails when
// nothing could be loaded, returning a *nlperr.ModelLoadError that lists
// every failure.
func Load(ctx context.Context, dir string, specs []Spec, opts Options) (*Store, error) {
	if len(specs) == 0 {
		log.Error("Did not load any models, none configured")
		return nil, &nlperr.ModelLoadError{Reason: "none configured"}
	}
	if err := validateSpecs(specs); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	s := &Store{
		entities: make(map[string]*model.Model),
		timings:  make(map[string]time.Duration),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, spec := range specs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			path := resolve(dir, spec.Path)
			began := time.Now()
			m, err := model.ReadFile(path)
			took := time.Since(began)

			if err == nil && m.Family() != spec.Family {
				err = fmt.Errorf("file holds a %s model", m.Family())
			}

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				log.WithFields(logrus.Fields{"model": spec.label(), "path": path}).
					WithError(err).Error("Could not load model")
				s.failures = append(s.failures, nlperr.LoadFailure{Name: spec.label(), Path: path, Err: err})
				return nil
			}

			s.timings[spec.label()] = took
			if spec.Family == model.FamilyPOS {
				s.pos = m
			} else {
				s.entities[spec.Name] = m
			}
			log.WithFields(logrus.Fields{"model": spec.label(), "path": path, "took": took}).Info("Loaded model")
			return nil
		})
	}

	// Only context cancellation makes a worker return an error.
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}

	sort.Slice(s.failures, func(i, j int) bool { return s.failures[i].Name < s.failures[j].Name })

	if len(s.entities) == 0 && s.pos == nil {
		return nil, &nlperr.ModelLoadError{Failures: s.failures}
	}

	for kind := range s.entities {
		s.kinds = append(s.kinds, kind)
	}
	sort.Strings(s.kinds)
	s.total = time.Since(start)

	log.Infof("Read models in [%s] for %v (pos: %t)", s.total, s.kinds, s.pos != nil)
	return s, nil
}

func validateSpecs(specs []Spec) error {
	seen := make(map[string]struct{})
	posCount := 0
	for _, spec := range specs {
		if spec.Path == "" {
			return fmt.Errorf("%w: model %s has no path", nlperr.ErrInvalidConfig, spec.label())
		}
		switch spec.Family {
		case model.FamilyPOS:
			posCount++
			if posCount > 1 {
				return fmt.Errorf("%w: more than one pos model configured", nlperr.ErrInvalidConfig)
			}
		case model.FamilyNER:
			if spec.Name == "" {
				return fmt.Errorf("%w: ner model %s has no entity kind", nlperr.ErrInvalidConfig, spec.Path)
			}
			if _, dup := seen[spec.Name]; dup {
				return fmt.Errorf("%w: entity kind %s configured twice", nlperr.ErrInvalidConfig, spec.Name)
			}
			seen[spec.Name] = struct{}{}
		default:
			return fmt.Errorf("%w: unknown model family %q", nlperr.ErrInvalidConfig, spec.Family)
		}
	}
	return nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

// AvailableEntityKinds returns the loaded entity kinds, sorted.
func (s *Store) AvailableEntityKinds() []string {
	return append([]string(nil), s.kinds...)
}

// HasEntityKind reports whether a model for kind was loaded.
func (s *Store) HasEntityKind(kind string) bool {
	_, ok := s.entities[kind]
	return ok
}

// EntityModel returns the model for kind.
func (s *Store) EntityModel(kind string) (*model.Model, bool) {
	m, ok := s.entities[kind]
	return m, ok
}

// POSModel returns the part-of-speech model, or nil if none was loaded.
func (s *Store) POSModel() *model.Model {
	return s.pos
}

// Failures returns the models that could not be loaded.
func (s *Store) Failures() []nlperr.LoadFailure {
	return append([]nlperr.LoadFailure(nil), s.failures...)
}

// LoadTime returns the wall time Load took.
func (s *Store) LoadTime() time.Duration {
	return s.total
}

// ModelLoadTimes returns decode time per model label, e.g. "[ner] names".
func (s *Store) ModelLoadTimes() map[string]time.Duration {
	out := make(map[string]time.Duration, len(s.timings))
	for k, v := range s.timings {
		out[k] = v
	}
	return out
}
