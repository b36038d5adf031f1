package domain

import "strings"

// NoContentSentinel marks table-of-contents headings whose section is empty.
const NoContentSentinel = "<no_content>"

// TitleHeading is the implicit heading for text preceding the first heading.
const TitleHeading = "Title"

// HeadingMatch is the result of recognising a heading line.
type HeadingMatch struct {
	// Identifier is the hierarchical token ("1.2", "IV") or, for
	// caller-supplied patterns, the pattern itself.
	Identifier string

	// Title is the trimmed heading text after the identifier.
	Title string

	// RawLine is the line the match was made on.
	RawLine string
}

// TOCEntry is a single heading and its section content.
type TOCEntry struct {
	Heading string
	Content string
}

// TableOfContents is the ordered heading index of a document.
// Entries keep the order headings were first seen in.
type TableOfContents struct {
	Entries []TOCEntry
}

// Render returns the text form stored with the document: one heading per
// line, with empty sections marked by NoContentSentinel.
func (t TableOfContents) Render() string {
	var b strings.Builder
	for _, e := range t.Entries {
		b.WriteString(e.Heading)
		if strings.TrimSpace(e.Content) == "" {
			b.WriteString(" ")
			b.WriteString(NoContentSentinel)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Sections returns the entries that carry content.
func (t TableOfContents) Sections() []TOCEntry {
	out := make([]TOCEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		if strings.TrimSpace(e.Content) != "" {
			out = append(out, e)
		}
	}
	return out
}

// HierarchicalBlock pairs a parent section with one immediate child.
type HierarchicalBlock struct {
	ParentHeading string
	ChildHeading  string
	Text          string
}
