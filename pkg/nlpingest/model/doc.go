// Package model holds the statistical models used for entity finding and
// part-of-speech tagging.
//
// A Model is a linear classifier over string context features (current word,
// neighbouring words, word shape, suffix, previous outcome, and for entity
// models the outcome last assigned to the same word in the document). Models
// are decoded once from YAML or from the compact binary format and never change
// afterwards. Decoding is done by NameFinder and Tagger sessions, which own all
// mutable state and must not be shared between concurrent callers.
package model
