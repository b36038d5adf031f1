// Package html provides a Normaliser implementation for HTML documents.
// Scripts, styles and markup are stripped; headings and preformatted
// blocks keep their line structure.
package html
