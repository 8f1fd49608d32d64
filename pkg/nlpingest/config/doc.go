// Package config loads the YAML service configuration: model files,
// engine tuning, the processor pipeline, logging and the document sink.
package config
