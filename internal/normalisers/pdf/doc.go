// Package pdf provides a Normaliser for PDF documents backed by unipdf.
package pdf
