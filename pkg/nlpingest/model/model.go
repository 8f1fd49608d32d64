package model

import (
	"fmt"
	"math"
	"slices"
)

// Family identifies what a model predicts.
type Family string

const (
	// FamilyNER models mark entity spans with the outcomes start, cont and other.
	FamilyNER Family = "ner"
	// FamilyPOS models assign a part-of-speech tag to every token.
	FamilyPOS Family = "pos"
)

// Outcomes of an entity finder.
const (
	OutcomeStart = "start"
	OutcomeCont  = "cont"
	OutcomeOther = "other"
)

// DefaultBeamSize is used when a definition does not set one.
const DefaultBeamSize = 3

// Definition is the serialized form of a model. It is only used while
// decoding and encoding; inference runs on the compiled Model.
type Definition struct {
	Name     string                        `yaml:"name"`
	Family   Family                        `yaml:"family"`
	Language string                        `yaml:"language,omitempty"`
	BeamSize int                           `yaml:"beam_size,omitempty"`
	Outcomes []string                      `yaml:"outcomes,omitempty"`
	Weights  map[string]map[string]float64 `yaml:"weights"`
}

// Model is a compiled linear classifier over context features.
// It is immutable after New returns and safe to share between goroutines;
// per-call state lives in NameFinder and Tagger sessions.
type Model struct {
	name     string
	family   Family
	language string
	beamSize int
	outcomes []string
	index    map[string]int
	weights  map[string][]float64 // feature -> weight per outcome index
}

// New validates a definition and compiles it.
func New(def Definition) (*Model, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("model name is required")
	}

	outcomes := def.Outcomes
	switch def.Family {
	case FamilyNER:
		if len(outcomes) == 0 {
			outcomes = []string{OutcomeStart, OutcomeCont, OutcomeOther}
		}
		for _, required := range []string{OutcomeStart, OutcomeCont, OutcomeOther} {
			if !slices.Contains(outcomes, required) {
				return nil, fmt.Errorf("model %s: ner models need outcome %q", def.Name, required)
			}
		}
	case FamilyPOS:
		if len(outcomes) == 0 {
			outcomes = collectOutcomes(def.Weights)
		}
	default:
		return nil, fmt.Errorf("model %s: unknown family %q", def.Name, def.Family)
	}
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("model %s: no outcomes", def.Name)
	}

	m := &Model{
		name:     def.Name,
		family:   def.Family,
		language: def.Language,
		beamSize: def.BeamSize,
		outcomes: append([]string(nil), outcomes...),
		index:    make(map[string]int, len(outcomes)),
		weights:  make(map[string][]float64, len(def.Weights)),
	}
	if m.beamSize <= 0 {
		m.beamSize = DefaultBeamSize
	}

	for i, o := range m.outcomes {
		if _, dup := m.index[o]; dup {
			return nil, fmt.Errorf("model %s: duplicate outcome %q", def.Name, o)
		}
		m.index[o] = i
	}

	for feature, perOutcome := range def.Weights {
		row := make([]float64, len(m.outcomes))
		for o, w := range perOutcome {
			idx, ok := m.index[o]
			if !ok {
				return nil, fmt.Errorf("model %s: feature %q references unknown outcome %q", def.Name, feature, o)
			}
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("model %s: feature %q has non-finite weight for %q", def.Name, feature, o)
			}
			row[idx] = w
		}
		m.weights[feature] = row
	}

	return m, nil
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Family returns the model family.
func (m *Model) Family() Family { return m.family }

// Language returns the language the model was built for, if recorded.
func (m *Model) Language() string { return m.language }

// BeamSize returns the number of sequences kept while decoding.
func (m *Model) BeamSize() int { return m.beamSize }

// Outcomes returns a copy of the outcome labels in index order.
func (m *Model) Outcomes() []string {
	return append([]string(nil), m.outcomes...)
}

// NumFeatures returns the number of features carrying weights.
func (m *Model) NumFeatures() int { return len(m.weights) }

// Definition rebuilds the serialized form of the model.
func (m *Model) Definition() Definition {
	weights := make(map[string]map[string]float64, len(m.weights))
	for feature, row := range m.weights {
		perOutcome := make(map[string]float64)
		for i, w := range row {
			if w != 0 {
				perOutcome[m.outcomes[i]] = w
			}
		}
		weights[feature] = perOutcome
	}
	return Definition{
		Name:     m.name,
		Family:   m.family,
		Language: m.language,
		BeamSize: m.beamSize,
		Outcomes: m.Outcomes(),
		Weights:  weights,
	}
}

// eval writes the outcome probabilities for the active features into probs,
// which must have one slot per outcome.
func (m *Model) eval(features []string, probs []float64) {
	for i := range probs {
		probs[i] = 0
	}
	for _, f := range features {
		row, ok := m.weights[f]
		if !ok {
			continue
		}
		for i, w := range row {
			probs[i] += w
		}
	}

	// softmax
	maxScore := probs[0]
	for _, s := range probs[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	for i, s := range probs {
		probs[i] = math.Exp(s - maxScore)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
}

func collectOutcomes(weights map[string]map[string]float64) []string {
	seen := make(map[string]struct{})
	for _, perOutcome := range weights {
		for o := range perOutcome {
			seen[o] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for o := range seen {
		out = append(out, o)
	}
	slices.Sort(out)
	return out
}
