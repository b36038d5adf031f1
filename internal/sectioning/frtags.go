package sectioning

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

var frTagPattern = regexp.MustCompile(`<[mu]-fr-\d+>`)

// AnnotateRequirement appends tag to every table-of-contents line whose
// heading equals heading. Existing tags and the no-content sentinel are
// ignored when comparing. A line already carrying tag is left unchanged.
func AnnotateRequirement(toc, heading string, tag domain.FRTag) string {
	heading = strings.TrimSpace(heading)
	if heading == "" {
		return toc
	}

	marker := tag.String()
	lines := strings.Split(toc, "\n")
	for i, line := range lines {
		if TOCHeading(line) != heading || strings.Contains(line, marker) {
			continue
		}
		lines[i] = strings.TrimRight(line, " \t") + marker
	}

	return strings.Join(lines, "\n")
}

// TOCHeading returns the heading part of a rendered table-of-contents line,
// without requirement tags or the no-content sentinel.
func TOCHeading(line string) string {
	base := strings.TrimSpace(frTagPattern.ReplaceAllString(line, ""))
	return strings.TrimSpace(strings.TrimSuffix(base, domain.NoContentSentinel))
}
