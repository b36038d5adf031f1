// Package sectioning splits document text into heading-addressed sections.
//
// It recognises heading lines (numbered, roman-numeral, uppercase and
// caller-supplied patterns), rewrites them into an annotated canonical
// form, builds the table of contents stored with each document and pairs
// parent and child sections into hierarchical blocks.
//
// Everything here is a pure function over text. The annotation marker and
// requirement tags written by this package are a persisted format: changing
// their shape breaks lookups against documents already stored.
package sectioning
