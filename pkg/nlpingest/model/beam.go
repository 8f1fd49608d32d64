package model

import (
	"math"
	"sort"
)

// validator rejects outcome o at position len(seq) given the outcomes so far.
type validator func(outcomes []string, seq []int, o int) bool

func acceptAll([]string, []int, int) bool { return true }

// nerValidator allows cont only directly after start or cont.
func nerValidator(outcomes []string, seq []int, o int) bool {
	if outcomes[o] != OutcomeCont {
		return true
	}
	if len(seq) == 0 {
		return false
	}
	prev := outcomes[seq[len(seq)-1]]
	return prev == OutcomeStart || prev == OutcomeCont
}

type sequence struct {
	outcomes []int
	score    float64 // sum of log probabilities
}

// decoder holds the scratch state for beam search over one model.
// It is not safe for concurrent use.
type decoder struct {
	model    *Model
	valid    validator
	features []string
	probs    []float64
	labels   []string
	beam     []sequence
	next     []sequence
}

func newDecoder(m *Model, valid validator) *decoder {
	return &decoder{
		model: m,
		valid: valid,
		probs: make([]float64, len(m.outcomes)),
	}
}

// decode returns the most probable outcome sequence for tokens.
func (d *decoder) decode(tokens []string, adaptive map[string]string) []string {
	if len(tokens) == 0 {
		return nil
	}

	m := d.model
	d.beam = append(d.beam[:0], sequence{})

	for i := range tokens {
		d.next = d.next[:0]
		for _, seq := range d.beam {
			d.labels = d.labels[:0]
			for _, o := range seq.outcomes {
				d.labels = append(d.labels, m.outcomes[o])
			}
			d.features = contextFeatures(d.features[:0], tokens, i, d.labels, adaptive)
			m.eval(d.features, d.probs)

			for o, p := range d.probs {
				if !d.valid(m.outcomes, seq.outcomes, o) {
					continue
				}
				outcomes := make([]int, len(seq.outcomes)+1)
				copy(outcomes, seq.outcomes)
				outcomes[len(seq.outcomes)] = o
				d.next = append(d.next, sequence{outcomes: outcomes, score: seq.score + math.Log(p)})
			}
		}

		sort.SliceStable(d.next, func(a, b int) bool {
			return d.next[a].score > d.next[b].score
		})
		if len(d.next) > m.beamSize {
			d.next = d.next[:m.beamSize]
		}
		d.beam, d.next = d.next, d.beam
	}

	best := d.beam[0].outcomes
	out := make([]string, len(best))
	for i, o := range best {
		out[i] = m.outcomes[o]
	}
	return out
}

func (d *decoder) reset() {
	d.features = d.features[:0]
	d.labels = d.labels[:0]
	d.beam = d.beam[:0]
	d.next = d.next[:0]
}
