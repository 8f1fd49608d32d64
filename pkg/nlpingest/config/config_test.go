package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/nlpingest/pkg/nlpingest/extract"
	"github.com/cognicore/nlpingest/pkg/nlpingest/model"
	"github.com/cognicore/nlpingest/pkg/nlpingest/modelstore"
	"github.com/cognicore/nlpingest/pkg/nlpingest/nlperr"
)

const sample = `model_dir: models
models:
  ner:
    names: en-ner-persons.yaml
    locations: en-ner-locations.bin
  pos: en-pos.yaml
engine:
  session_mode: fresh
  pool_size: 8
  timeout: 2s
  load_workers: 4
pipeline:
  - type: opennlp
    tag: entities
    config:
      field: body
      fields: [names, locations]
  - type: opennlp_pos
    config: {field: body, tags: [NN, NNP], normalize: true}
workers: 4
log:
  level: debug
  format: json
sink:
  sqlite: out.db
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nlp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sample)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "models"), cfg.ModelDir)
	assert.Equal(t, map[string]string{"names": "en-ner-persons.yaml", "locations": "en-ner-locations.bin"}, cfg.Models.NER)
	assert.Equal(t, "en-pos.yaml", cfg.Models.POS)
	assert.Equal(t, 2*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, 8, cfg.Engine.PoolSize)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "out.db", cfg.Sink.SQLite)

	require.Len(t, cfg.Pipeline, 2)
	assert.Equal(t, "opennlp", cfg.Pipeline[0].Type)
	assert.Equal(t, "entities", cfg.Pipeline[0].Tag)
	assert.Equal(t, []any{"names", "locations"}, cfg.Pipeline[0].Config["fields"])
	assert.Equal(t, true, cfg.Pipeline[1].Config["normalize"])
}

func TestLoadKeepsAbsoluteModelDir(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeConfig(t, "model_dir: "+dir+"\n"))
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.ModelDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"session mode", "engine: {session_mode: threadlocal}", "engine.session_mode"},
		{"pool size", "engine: {pool_size: -1}", "engine.pool_size"},
		{"timeout", "engine: {timeout: -1s}", "engine.timeout"},
		{"workers", "workers: -2", "workers"},
		{"log level", "log: {level: loud}", "log.level"},
		{"log format", "log: {format: xml}", "log.format"},
		{"empty model path", "models: {ner: {names: ''}}", "models.ner.names"},
		{"processor type", "pipeline: [{type: grok}]", "pipeline[0]"},
		{"unknown key", "modeldir: x", "modeldir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, nlperr.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestModelSpecs(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, []modelstore.Spec{
		{Family: model.FamilyNER, Name: "locations", Path: "en-ner-locations.bin"},
		{Family: model.FamilyNER, Name: "names", Path: "en-ner-persons.yaml"},
		{Family: model.FamilyPOS, Path: "en-pos.yaml"},
	}, cfg.ModelSpecs())
}

func TestEngineOptions(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)
	assert.Equal(t, extract.Options{Mode: extract.SessionsFresh, PoolSize: 8, Timeout: 2 * time.Second}, opts)
	assert.Equal(t, modelstore.Options{Workers: 4}, cfg.StoreOptions())
}
