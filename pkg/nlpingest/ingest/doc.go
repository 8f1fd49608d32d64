// Package ingest applies extraction to documents: a dotted-path document
// model, the opennlp and opennlp_pos processors, pipelines built from
// declarative steps, and a bounded batch runner.
package ingest
