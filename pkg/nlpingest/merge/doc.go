// Package merge combines freshly extracted values with the values already
// stored in a document's target field. All functions are pure: inputs are
// never modified.
package merge
