// Package tokenize splits raw text into surface tokens for the statistical
// models. The rules match the simple character-class tokenizer the bundled
// models are built against, so tokens are never lowercased or stemmed.
package tokenize
