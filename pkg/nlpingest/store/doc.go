// Package store defines the sink enriched documents are written to.
// Implementations live in the sqlite and memstore subpackages.
package store
