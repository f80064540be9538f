// Package normalisers provides implementations of the Normaliser interface
// for the upload formats embediq accepts. Each normaliser knows how to
// extract plain text from a specific MIME type.
//
// Normalisers are registered with a Registry at startup; the registry picks
// the highest priority normaliser for each upload.
package normalisers
