package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/nlpingest/pkg/nlpingest/extract"
	"github.com/cognicore/nlpingest/pkg/nlpingest/ingest"
	"github.com/cognicore/nlpingest/pkg/nlpingest/model"
	"github.com/cognicore/nlpingest/pkg/nlpingest/modelstore"
	"github.com/cognicore/nlpingest/pkg/nlpingest/nlperr"
)

// Config is the service configuration file.
type Config struct {
	ModelDir string        `yaml:"model_dir"`
	Models   Models        `yaml:"models"`
	Engine   Engine        `yaml:"engine"`
	Pipeline []ingest.Step `yaml:"pipeline"`
	Workers  int           `yaml:"workers"`
	Log      Log           `yaml:"log"`
	Sink     Sink          `yaml:"sink"`
}

// Models maps entity kinds to model files. POS names the tagger model.
type Models struct {
	NER map[string]string `yaml:"ner"`
	POS string            `yaml:"pos"`
}

// Engine tunes the extraction engine and model loading.
type Engine struct {
	SessionMode string        `yaml:"session_mode"`
	PoolSize    int           `yaml:"pool_size"`
	Timeout     time.Duration `yaml:"timeout"`
	LoadWorkers int           `yaml:"load_workers"`
}

// Log selects the log level and output format.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Sink names where enriched documents are stored. Empty means nowhere.
type Sink struct {
	SQLite string `yaml:"sqlite"`
}

// Default returns the configuration used for fields a file leaves out.
func Default() *Config {
	return &Config{
		ModelDir: "models",
		Models:   Models{NER: map[string]string{}},
		Engine:   Engine{SessionMode: string(extract.SessionsPooled)},
		Log:      Log{Level: "info", Format: "text"},
	}
}

// Load reads and validates the configuration at path. A relative model_dir
// is resolved against the directory holding the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if !filepath.IsAbs(cfg.ModelDir) {
		cfg.ModelDir = filepath.Join(filepath.Dir(path), cfg.ModelDir)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration document. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", nlperr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that decoding alone cannot.
func (c *Config) Validate() error {
	var problems []string
	if _, err := extract.ParseSessionMode(c.Engine.SessionMode); err != nil {
		problems = append(problems, fmt.Sprintf("engine.session_mode: unknown mode %q", c.Engine.SessionMode))
	}
	if c.Engine.PoolSize < 0 {
		problems = append(problems, "engine.pool_size must not be negative")
	}
	if c.Engine.LoadWorkers < 0 {
		problems = append(problems, "engine.load_workers must not be negative")
	}
	if c.Engine.Timeout < 0 {
		problems = append(problems, "engine.timeout must not be negative")
	}
	if c.Workers < 0 {
		problems = append(problems, "workers must not be negative")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level: unknown level %q", c.Log.Level))
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		problems = append(problems, fmt.Sprintf("log.format: unknown format %q", c.Log.Format))
	}
	for kind, path := range c.Models.NER {
		if path == "" {
			problems = append(problems, fmt.Sprintf("models.ner.%s: empty path", kind))
		}
	}
	for i, s := range c.Pipeline {
		if s.Type != ingest.TypeEntities && s.Type != ingest.TypePOS {
			problems = append(problems, fmt.Sprintf("pipeline[%d]: unknown processor type %q", i, s.Type))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%w: %s", nlperr.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ModelSpecs lists the configured models, entity kinds in name order
// followed by the tagger.
func (c *Config) ModelSpecs() []modelstore.Spec {
	kinds := make([]string, 0, len(c.Models.NER))
	for k := range c.Models.NER {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	specs := make([]modelstore.Spec, 0, len(kinds)+1)
	for _, k := range kinds {
		specs = append(specs, modelstore.Spec{Family: model.FamilyNER, Name: k, Path: c.Models.NER[k]})
	}
	if c.Models.POS != "" {
		specs = append(specs, modelstore.Spec{Family: model.FamilyPOS, Path: c.Models.POS})
	}
	return specs
}

// EngineOptions converts the engine section.
func (c *Config) EngineOptions() (extract.Options, error) {
	mode, err := extract.ParseSessionMode(c.Engine.SessionMode)
	if err != nil {
		return extract.Options{}, err
	}
	return extract.Options{Mode: mode, PoolSize: c.Engine.PoolSize, Timeout: c.Engine.Timeout}, nil
}

// StoreOptions converts the loading settings.
func (c *Config) StoreOptions() modelstore.Options {
	return modelstore.Options{Workers: c.Engine.LoadWorkers}
}
