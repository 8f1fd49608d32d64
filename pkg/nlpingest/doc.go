// Package nlpingest extracts named entities and part-of-speech tag counts
// from document fields and merges them back into the documents.
//
// A Service is opened from a configuration: it loads the models, builds an
// extraction engine and the processor pipeline, and optionally a sink:
//
//	cfg, err := config.Load("nlp.yaml")
//	svc, err := nlpingest.Open(ctx, nlpingest.Options{Config: cfg})
//	docs, report, err := svc.Process(ctx, batch, true)
//
// The building blocks live in subpackages: tokenize, model, modelstore,
// extract, merge and ingest.
package nlpingest
