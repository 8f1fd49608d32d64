package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/nlpingest/internal/logger"
	"github.com/cognicore/nlpingest/pkg/nlpingest/extract"
	"github.com/cognicore/nlpingest/pkg/nlpingest/nlperr"
)

var log = logger.Get()

// Processor types understood by NewProcessor.
const (
	TypeEntities = "opennlp"
	TypePOS      = "opennlp_pos"
)

// Extractor is the part of *extract.Engine the processors use.
type Extractor interface {
	FindEntities(ctx context.Context, text, kind string) (extract.EntitySet, error)
	CountTags(ctx context.Context, text string, allowList []string, normalize bool) (extract.TagCounts, error)
	AvailableEntityKinds() []string
	HasPOS() bool
}

// Processor enriches one document in place.
type Processor interface {
	Type() string
	Tag() string
	Execute(ctx context.Context, doc *Document) error
}

// ConfigurationError reports an invalid processor property.
type ConfigurationError struct {
	Type     string
	Tag      string
	Property string
	Reason   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Type)
	if e.Tag != "" {
		fmt.Fprintf(&b, " [%s]", e.Tag)
	}
	if e.Property != "" {
		fmt.Fprintf(&b, ": [%s]", e.Property)
	}
	b.WriteString(" ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Is matches nlperr.ErrInvalidConfig as well as the wrapped cause.
func (e *ConfigurationError) Is(target error) bool {
	return target == nlperr.ErrInvalidConfig
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewProcessor builds a processor of typ from its raw configuration.
// Properties are consumed as they are read; anything left over is rejected.
func NewProcessor(ex Extractor, typ, tag string, config map[string]any) (Processor, error) {
	r := &reader{typ: typ, tag: tag, config: make(map[string]any, len(config))}
	for k, v := range config {
		r.config[k] = v
	}

	var (
		p   Processor
		err error
	)
	switch typ {
	case TypeEntities:
		p, err = newEntityProcessor(ex, r)
	case TypePOS:
		p, err = newPOSProcessor(ex, r)
	default:
		return nil, &ConfigurationError{Type: typ, Tag: tag, Reason: "unknown processor type"}
	}
	if err != nil {
		return nil, err
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return p, nil
}

// reader reads typed properties out of a processor configuration.
type reader struct {
	typ    string
	tag    string
	config map[string]any
}

func (r *reader) fail(property, format string, args ...any) error {
	return &ConfigurationError{Type: r.typ, Tag: r.tag, Property: property, Reason: fmt.Sprintf(format, args...)}
}

func (r *reader) take(property string) (any, bool) {
	v, ok := r.config[property]
	delete(r.config, property)
	return v, ok && v != nil
}

func (r *reader) requiredString(property string) (string, error) {
	v, ok := r.take(property)
	if !ok {
		return "", r.fail(property, "required property is missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", r.fail(property, "property isn't a string, but of type [%T]", v)
	}
	if s == "" {
		return "", r.fail(property, "property must not be empty")
	}
	return s, nil
}

func (r *reader) optionalString(property, def string) (string, error) {
	v, ok := r.take(property)
	if !ok {
		return def, nil
	}
	s, isString := v.(string)
	if !isString {
		return "", r.fail(property, "property isn't a string, but of type [%T]", v)
	}
	return s, nil
}

func (r *reader) optionalBool(property string, def bool) (bool, error) {
	v, ok := r.take(property)
	if !ok {
		return def, nil
	}
	b, isBool := v.(bool)
	if !isBool {
		return false, r.fail(property, "property isn't a boolean, but of type [%T]", v)
	}
	return b, nil
}

func (r *reader) optionalList(property string) ([]string, error) {
	v, ok := r.take(property)
	if !ok {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, isString := item.(string)
			if !isString {
				return nil, r.fail(property, "list item isn't a string, but of type [%T]", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, r.fail(property, "property isn't a list, but of type [%T]", v)
}

// done rejects properties nobody asked for.
func (r *reader) done() error {
	if len(r.config) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.config))
	for k := range r.config {
		names = append(names, k)
	}
	sort.Strings(names)
	return r.fail(names[0], "unknown property, processor does not support %s", strings.Join(names, ", "))
}

// source reads the text field, reporting ok=false when there is nothing
// to process.
func source(doc *Document, field string, ignoreMissing, stripHTML bool) (string, bool, error) {
	if !doc.Has(field) && ignoreMissing {
		return "", false, nil
	}
	text, err := doc.GetString(field)
	if err != nil {
		return "", false, err
	}
	if stripHTML {
		text = StripHTML(text)
	}
	return text, text != "", nil
}

// render converts an extraction result into its document representation.
func render(r extract.Result) any {
	switch v := r.(type) {
	case extract.EntitySet:
		out := make([]any, len(v.Values))
		for i, s := range v.Values {
			out[i] = s
		}
		return out
	case extract.TagCounts:
		return v.Values()
	case extract.AnnotatedText:
		return v.Text
	}
	return nil
}
