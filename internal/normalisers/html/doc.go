// Package html provides a Normaliser implementation for HTML documents.
// Markup is parsed with goquery; scripts, styles and navigation are dropped
// and the main content region is flattened to one text block per line.
package html
