package ingest

import (
	"context"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/nlpingest/pkg/nlpingest/extract"
	"github.com/cognicore/nlpingest/pkg/nlpingest/merge"
	"github.com/cognicore/nlpingest/pkg/nlpingest/nlperr"
)

// EntityProcessor finds entities of the configured kinds in one field and
// merges them into an object keyed by kind.
type EntityProcessor struct {
	ex             Extractor
	tag            string
	field          string
	targetField    string
	kinds          []string
	ignoreMissing  bool
	annotatedField string
	stripHTML      bool
}

func newEntityProcessor(ex Extractor, r *reader) (*EntityProcessor, error) {
	p := &EntityProcessor{ex: ex, tag: r.tag}
	var err error
	if p.field, err = r.requiredString("field"); err != nil {
		return nil, err
	}
	if p.targetField, err = r.optionalString("target_field", "entities"); err != nil {
		return nil, err
	}
	if p.ignoreMissing, err = r.optionalBool("ignore_missing", false); err != nil {
		return nil, err
	}
	if p.annotatedField, err = r.optionalString("annotated_text_field", ""); err != nil {
		return nil, err
	}
	if p.stripHTML, err = r.optionalBool("strip_html", false); err != nil {
		return nil, err
	}

	kinds, err := r.optionalList("fields")
	if err != nil {
		return nil, err
	}
	available := ex.AvailableEntityKinds()
	if kinds == nil {
		kinds = available
	}
	for _, k := range kinds {
		if slices.Contains(p.kinds, k) {
			continue
		}
		if !slices.Contains(available, k) {
			return nil, &ConfigurationError{
				Type:     TypeEntities,
				Tag:      r.tag,
				Property: "fields",
				Reason:   "illegal field option",
				Err:      &nlperr.UnknownEntityKindError{Kind: k, Valid: available},
			}
		}
		p.kinds = append(p.kinds, k)
	}
	return p, nil
}

func (p *EntityProcessor) Type() string { return TypeEntities }
func (p *EntityProcessor) Tag() string  { return p.tag }

// TargetField returns the field entities are merged into.
func (p *EntityProcessor) TargetField() string { return p.targetField }

// Kinds returns the entity kinds the processor extracts, in order.
func (p *EntityProcessor) Kinds() []string { return slices.Clone(p.kinds) }

// Execute extracts entities from the source field. An empty field is a no-op.
func (p *EntityProcessor) Execute(ctx context.Context, doc *Document) error {
	text, ok, err := source(doc, p.field, p.ignoreMissing, p.stripHTML)
	if err != nil || !ok {
		return err
	}

	entities, rest := p.existing(doc)
	sets := make([]extract.EntitySet, 0, len(p.kinds))
	for _, kind := range p.kinds {
		set, err := p.ex.FindEntities(ctx, text, kind)
		if err != nil {
			return err
		}
		sets = append(sets, set)
		if !set.Empty() {
			delete(rest, kind)
		}
		entities = merge.Entities(entities, kind, set.Values)
	}

	out := merge.EntityDoc(entities)
	for kind, raw := range rest {
		out[kind] = raw
	}
	if len(out) > 0 {
		if err := doc.Set(p.targetField, out); err != nil {
			return err
		}
	}

	if p.annotatedField != "" {
		annotated := extract.AnnotateSets(text, sets)
		if err := doc.Set(p.annotatedField, render(annotated)); err != nil {
			return err
		}
	}
	return nil
}

// existing splits the stored target into entity lists and entries that do
// not hold string lists. A target that is not an object is replaced.
func (p *EntityProcessor) existing(doc *Document) (map[string][]string, map[string]any) {
	v, err := doc.Get(p.targetField)
	if err != nil {
		return map[string][]string{}, map[string]any{}
	}
	entities, rest, err := merge.SplitEntities(v)
	if err != nil {
		log.WithFields(logrus.Fields{"field": p.targetField, "id": doc.ID()}).
			WithError(err).Warn("Replacing target field that does not hold entities")
		return map[string][]string{}, map[string]any{}
	}
	return entities, rest
}
