// Package markdown provides a Normaliser for Markdown documents built on
// the goldmark parser.
package markdown
