package model

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrSessionInUse is returned when a session is entered by a second caller
// while a run is still in progress.
var ErrSessionInUse = errors.New("inference session already in use")

// Span is a token range [Start, End) found by a NameFinder.
type Span struct {
	Start int
	End   int
}

// NameFinder is an inference session over an entity model.
// It carries adaptive document data between Find calls until Reset,
// so it must only be used by one caller at a time.
type NameFinder struct {
	model    *Model
	dec      *decoder
	adaptive map[string]string
	busy     atomic.Bool
}

// NewNameFinder creates a session for an entity model.
func NewNameFinder(m *Model) (*NameFinder, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	if m.family != FamilyNER {
		return nil, fmt.Errorf("model %s is a %s model, not %s", m.name, m.family, FamilyNER)
	}
	return &NameFinder{
		model:    m,
		dec:      newDecoder(m, nerValidator),
		adaptive: make(map[string]string),
	}, nil
}

// Model returns the model the session is bound to.
func (f *NameFinder) Model() *Model { return f.model }

// Find returns the entity spans in tokens, in order of appearance.
func (f *NameFinder) Find(tokens []string) ([]Span, error) {
	if !f.busy.CompareAndSwap(false, true) {
		return nil, ErrSessionInUse
	}
	defer f.busy.Store(false)

	outcomes := f.dec.decode(tokens, f.adaptive)

	for i, o := range outcomes {
		f.adaptive[tokens[i]] = o
	}

	var spans []Span
	start := -1
	for i, o := range outcomes {
		switch o {
		case OutcomeStart:
			if start >= 0 {
				spans = append(spans, Span{Start: start, End: i})
			}
			start = i
		case OutcomeCont:
			// extends the open span
		default:
			if start >= 0 {
				spans = append(spans, Span{Start: start, End: i})
				start = -1
			}
		}
	}
	if start >= 0 {
		spans = append(spans, Span{Start: start, End: len(outcomes)})
	}

	return spans, nil
}

// Reset forgets the adaptive data of the previous document.
func (f *NameFinder) Reset() {
	clear(f.adaptive)
	f.dec.reset()
}

// Tagger is an inference session over a part-of-speech model.
type Tagger struct {
	model *Model
	dec   *decoder
	busy  atomic.Bool
}

// NewTagger creates a session for a part-of-speech model.
func NewTagger(m *Model) (*Tagger, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	if m.family != FamilyPOS {
		return nil, fmt.Errorf("model %s is a %s model, not %s", m.name, m.family, FamilyPOS)
	}
	return &Tagger{model: m, dec: newDecoder(m, acceptAll)}, nil
}

// Model returns the model the session is bound to.
func (t *Tagger) Model() *Model { return t.model }

// Tag assigns one tag per token. The whole sequence is decoded together
// because a tag depends on the tags before it.
func (t *Tagger) Tag(tokens []string) ([]string, error) {
	if !t.busy.CompareAndSwap(false, true) {
		return nil, ErrSessionInUse
	}
	defer t.busy.Store(false)

	return t.dec.decode(tokens, nil), nil
}

// Reset clears scratch state.
func (t *Tagger) Reset() {
	t.dec.reset()
}
