package ingest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Step declares one processor of a pipeline.
type Step struct {
	Type   string         `yaml:"type"`
	Tag    string         `yaml:"tag"`
	Config map[string]any `yaml:"config"`
}

// Pipeline runs processors in order against a document.
type Pipeline struct {
	processors []Processor
}

// NewPipeline builds every step. The first configuration error aborts.
func NewPipeline(ex Extractor, steps []Step) (*Pipeline, error) {
	p := &Pipeline{processors: make([]Processor, 0, len(steps))}
	for _, s := range steps {
		proc, err := NewProcessor(ex, s.Type, s.Tag, s.Config)
		if err != nil {
			return nil, err
		}
		p.processors = append(p.processors, proc)
	}
	return p, nil
}

// Processors returns the pipeline's processors in order.
func (p *Pipeline) Processors() []Processor {
	return append([]Processor(nil), p.processors...)
}

// Execute runs every processor and stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, doc *Document) error {
	for _, proc := range p.processors {
		log.WithFields(logrus.Fields{"processor": proc.Type(), "tag": proc.Tag(), "id": doc.ID()}).Debug("Running processor")
		if err := proc.Execute(ctx, doc); err != nil {
			return fmt.Errorf("processor %s [%s]: %w", proc.Type(), proc.Tag(), err)
		}
	}
	return nil
}
