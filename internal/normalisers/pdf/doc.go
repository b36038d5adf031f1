// Package pdf provides a Normaliser for PDF documents using the pure Go
// ledongthuc/pdf reader.
package pdf
