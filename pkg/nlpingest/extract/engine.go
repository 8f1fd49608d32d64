package extract

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/cognicore/nlpingest/internal/logger"
	"github.com/cognicore/nlpingest/pkg/nlpingest/model"
	"github.com/cognicore/nlpingest/pkg/nlpingest/modelstore"
	"github.com/cognicore/nlpingest/pkg/nlpingest/nlperr"
	"github.com/cognicore/nlpingest/pkg/nlpingest/tokenize"
)

var log = logger.Get()

// SessionMode selects how inference sessions are obtained.
type SessionMode string

const (
	// SessionsPooled reuses idle sessions per model and builds new ones on demand.
	SessionsPooled SessionMode = "pooled"
	// SessionsFresh builds a new session for every call.
	SessionsFresh SessionMode = "fresh"
)

// ParseSessionMode validates a configured mode name. Empty means pooled.
func ParseSessionMode(s string) (SessionMode, error) {
	switch SessionMode(strings.ToLower(s)) {
	case "", SessionsPooled:
		return SessionsPooled, nil
	case SessionsFresh:
		return SessionsFresh, nil
	}
	return "", fmt.Errorf("%w: unknown session mode %q", nlperr.ErrInvalidConfig, s)
}

// Options configures an Engine.
type Options struct {
	Mode SessionMode
	// PoolSize is the number of idle sessions kept per model.
	// Zero means GOMAXPROCS. Ignored in fresh mode.
	PoolSize int
	// Timeout bounds every call when positive.
	Timeout time.Duration
}

// Engine runs entity finding and tag counting against a model store.
// All methods are safe for concurrent use.
type Engine struct {
	store   *modelstore.Store
	finders map[string]*pool[*model.NameFinder]
	tagger  *pool[*model.Tagger]
	timeout time.Duration
}

// New builds an engine over a loaded store.
func New(store *modelstore.Store, opts Options) *Engine {
	size := opts.PoolSize
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	if opts.Mode == SessionsFresh {
		size = 0
	}

	e := &Engine{
		store:   store,
		finders: make(map[string]*pool[*model.NameFinder]),
		timeout: opts.Timeout,
	}

	for _, kind := range store.AvailableEntityKinds() {
		m, _ := store.EntityModel(kind)
		e.finders[kind] = newPool(size, func() (*model.NameFinder, error) {
			return model.NewNameFinder(m)
		})
	}
	if m := store.POSModel(); m != nil {
		e.tagger = newPool(size, func() (*model.Tagger, error) {
			return model.NewTagger(m)
		})
	}

	return e
}

// AvailableEntityKinds returns the entity kinds that can be extracted.
func (e *Engine) AvailableEntityKinds() []string {
	return e.store.AvailableEntityKinds()
}

// HasPOS reports whether tag counting is available.
func (e *Engine) HasPOS() bool {
	return e.tagger != nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return ctx, func() {}
}

// FindEntities returns the distinct entities of kind found in text.
// Finding nothing is not an error. An unknown kind fails with
// *nlperr.UnknownEntityKindError.
func (e *Engine) FindEntities(ctx context.Context, text, kind string) (EntitySet, error) {
	p, ok := e.finders[kind]
	if !ok {
		return EntitySet{}, &nlperr.UnknownEntityKindError{Kind: kind, Valid: e.store.AvailableEntityKinds()}
	}

	set := EntitySet{Kind: kind}
	spans := tokenize.Spans(text)
	if len(spans) == 0 {
		return set, nil
	}
	tokens := tokenize.Texts(spans)

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	m, _ := e.store.EntityModel(kind)
	found, err := run(ctx, p, kind, m.Name(), func(f *model.NameFinder) ([]model.Span, error) {
		return f.Find(tokens)
	})
	if err != nil {
		return EntitySet{}, err
	}

	seen := make(map[string]struct{}, len(found))
	for _, sp := range found {
		surface := tokenize.Covered(text, spans, sp.Start, sp.End-1)
		set.Mentions = append(set.Mentions, Mention{
			Text:  surface,
			Start: spans[sp.Start].Start,
			End:   spans[sp.End-1].End,
		})
		if _, dup := seen[surface]; dup {
			continue
		}
		seen[surface] = struct{}{}
		set.Values = append(set.Values, surface)
	}
	return set, nil
}

// CountTags tags text and counts the canonical tags. With a non-empty
// allowList only those tags are counted. With normalize every count is
// reported as a share of all tagged tokens, filtered or not.
func (e *Engine) CountTags(ctx context.Context, text string, allowList []string, normalize bool) (TagCounts, error) {
	if e.tagger == nil {
		return TagCounts{}, nlperr.ErrPOSModelNotLoaded
	}

	var allow map[string]struct{}
	if len(allowList) > 0 {
		allow = make(map[string]struct{}, len(allowList))
		for _, t := range allowList {
			allow[t] = struct{}{}
		}
	}

	tokens := tokenize.Tokenize(text)
	if len(tokens) == 0 {
		return countTags(nil, allow, normalize), nil
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	tags, err := run(ctx, e.tagger, "pos", e.store.POSModel().Name(), func(t *model.Tagger) ([]string, error) {
		return t.Tag(tokens)
	})
	if err != nil {
		return TagCounts{}, err
	}
	return countTags(tags, allow, normalize), nil
}

// Annotate finds entities of every kind in kinds and returns text with each
// entity rewritten as [surface](kind).
func (e *Engine) Annotate(ctx context.Context, text string, kinds []string) (AnnotatedText, error) {
	sets := make([]EntitySet, 0, len(kinds))
	for _, kind := range kinds {
		set, err := e.FindEntities(ctx, text, kind)
		if err != nil {
			return AnnotatedText{}, err
		}
		sets = append(sets, set)
	}
	return AnnotateSets(text, sets), nil
}

// AnnotateSets marks the mentions of already computed sets in text, which
// must be the text the sets were found in. Where spans overlap the one
// starting first wins, then the longer one.
func AnnotateSets(text string, sets []EntitySet) AnnotatedText {
	var all []Annotation
	for _, set := range sets {
		for _, m := range set.Mentions {
			all = append(all, Annotation{Kind: set.Kind, Mention: m})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].End > all[j].End
	})

	var b strings.Builder
	var kept []Annotation
	pos := 0
	for _, a := range all {
		if a.Start < pos || a.End > len(text) {
			continue
		}
		b.WriteString(text[pos:a.Start])
		fmt.Fprintf(&b, "[%s](%s)", a.Text, a.Kind)
		pos = a.End
		kept = append(kept, a)
	}
	b.WriteString(text[pos:])

	return AnnotatedText{Text: b.String(), Annotations: kept}
}

// Stats returns session usage per model label: the entity kind, or "pos".
func (e *Engine) Stats() map[string]PoolStats {
	out := make(map[string]PoolStats, len(e.finders)+1)
	for kind, p := range e.finders {
		out[kind] = p.stats()
	}
	if e.tagger != nil {
		out["pos"] = e.tagger.stats()
	}
	return out
}
