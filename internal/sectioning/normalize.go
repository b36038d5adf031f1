package sectioning

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

// NormalizeHeadings rewrites every recognised heading line into
// "{annotation}{identifier} - {title}". Lines already carrying the
// annotation are left alone, so the rewrite is idempotent. Each line is
// handled at its own offset: repeated heading text is normalised everywhere
// it stands as a line of its own and nowhere else.
func NormalizeHeadings(text, annotation string, extraPatterns ...*regexp.Regexp) string {
	if annotation == "" {
		annotation = domain.DefaultHeadingAnnotation
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, annotation) || strings.HasSuffix(trimmed, annotation) {
			continue
		}

		m, ok := DetectHeading(line, extraPatterns, annotation)
		if !ok || m.Identifier == "" || m.Title == "" {
			continue
		}
		lines[i] = annotation + m.Identifier + " - " + m.Title
	}

	return strings.Join(lines, "\n")
}

// BuildTOC splits annotated text into its table of contents. Text before
// the first annotated heading becomes the implicit Title entry. A heading
// seen twice keeps its first position and collects both sections.
func BuildTOC(text, annotation string) domain.TableOfContents {
	if annotation == "" {
		annotation = domain.DefaultHeadingAnnotation
	}

	var (
		entries []domain.TOCEntry
		index   = make(map[string]int)
		pre     []string
		buf     []string
		cur     = -1
	)

	flush := func() {
		if cur < 0 {
			return
		}
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		switch {
		case body == "":
		case entries[cur].Content == "":
			entries[cur].Content = body
		default:
			entries[cur].Content += "\n\n" + body
		}
		buf = buf[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, annotation) {
			flush()
			if i, ok := index[trimmed]; ok {
				cur = i
				continue
			}
			entries = append(entries, domain.TOCEntry{Heading: trimmed})
			cur = len(entries) - 1
			index[trimmed] = cur
			continue
		}
		if cur < 0 {
			pre = append(pre, strings.TrimLeft(trimmed, "# "))
		} else {
			buf = append(buf, line)
		}
	}
	flush()

	if title := strings.TrimSpace(strings.Join(pre, "\n")); title != "" {
		entries = append([]domain.TOCEntry{{Heading: domain.TitleHeading, Content: title}}, entries...)
	}

	return domain.TableOfContents{Entries: entries}
}

// HeadingKey returns the stored form of a raw heading line: the annotated
// form when the line is a recognisable heading, the trimmed line otherwise.
func HeadingKey(raw, annotation string) string {
	if annotation == "" {
		annotation = domain.DefaultHeadingAnnotation
	}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, annotation) {
		return trimmed
	}
	m, ok := DetectHeading(trimmed, nil, annotation)
	if !ok || m.Title == "" {
		return trimmed
	}
	return annotation + m.Identifier + " - " + m.Title
}

// Truncate caps s at max runes, cutting at the last complete line that fits.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	cut := string([]rune(s)[:max])
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		return cut[:i+1]
	}
	return cut
}
