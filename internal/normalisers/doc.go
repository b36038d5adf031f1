// Package normalisers provides implementations of the Normaliser interface
// for the document formats accepted at upload. Each normaliser turns the
// uploaded bytes into text whose heading lines stand on their own.
//
// The Registry picks the highest priority normaliser for a MIME type;
// NewDefaultRegistry wires the built-in ones.
package normalisers
