package ingest

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/nlpingest/pkg/nlpingest/merge"
	"github.com/cognicore/nlpingest/pkg/nlpingest/nlperr"
)

// POSProcessor counts part-of-speech tags of one field and merges the counts
// into an object keyed by tag.
type POSProcessor struct {
	ex            Extractor
	tag           string
	field         string
	targetField   string
	allow         []string
	normalize     bool
	policy        merge.TagPolicy
	ignoreMissing bool
	stripHTML     bool
}

func newPOSProcessor(ex Extractor, r *reader) (*POSProcessor, error) {
	if !ex.HasPOS() {
		return nil, &ConfigurationError{Type: TypePOS, Tag: r.tag, Reason: "cannot be used", Err: nlperr.ErrPOSModelNotLoaded}
	}

	p := &POSProcessor{ex: ex, tag: r.tag}
	var err error
	if p.field, err = r.requiredString("field"); err != nil {
		return nil, err
	}
	if p.targetField, err = r.optionalString("target_field", "tags"); err != nil {
		return nil, err
	}
	if p.allow, err = r.optionalList("tags"); err != nil {
		return nil, err
	}
	if p.normalize, err = r.optionalBool("normalize", false); err != nil {
		return nil, err
	}
	if p.ignoreMissing, err = r.optionalBool("ignore_missing", false); err != nil {
		return nil, err
	}
	if p.stripHTML, err = r.optionalBool("strip_html", false); err != nil {
		return nil, err
	}

	policy, err := r.optionalString("tag_merge", string(merge.TagsOverwrite))
	if err != nil {
		return nil, err
	}
	if p.policy, err = merge.ParseTagPolicy(policy); err != nil {
		return nil, r.fail("tag_merge", "%v", err)
	}
	return p, nil
}

func (p *POSProcessor) Type() string { return TypePOS }
func (p *POSProcessor) Tag() string  { return p.tag }

// Execute counts the tags of the source field. An empty field is a no-op.
func (p *POSProcessor) Execute(ctx context.Context, doc *Document) error {
	text, ok, err := source(doc, p.field, p.ignoreMissing, p.stripHTML)
	if err != nil || !ok {
		return err
	}

	counts, err := p.ex.CountTags(ctx, text, p.allow, p.normalize)
	if err != nil {
		return err
	}

	values, _ := render(counts).(map[string]any)
	merged := merge.Tags(p.existing(doc), values, p.policy)
	if len(merged) == 0 {
		return nil
	}
	return doc.Set(p.targetField, merged)
}

func (p *POSProcessor) existing(doc *Document) map[string]any {
	v, err := doc.Get(p.targetField)
	if err != nil {
		return map[string]any{}
	}
	m, err := merge.TagMap(v)
	if err != nil {
		log.WithFields(logrus.Fields{"field": p.targetField, "id": doc.ID()}).
			WithError(err).Warn("Replacing target field that does not hold tag counts")
		return map[string]any{}
	}
	return m
}
