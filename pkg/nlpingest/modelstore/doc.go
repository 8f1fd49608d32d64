// Package modelstore loads the configured entity and part-of-speech models
// once at start-up and hands them out read-only.
package modelstore
