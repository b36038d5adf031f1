package sectioning

import (
	"strings"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

type rawSection struct {
	heading string
	content []string
}

// CreateHierarchicalSectionBlocks pairs every section with its nearest
// preceding parent section and returns one block per pair, in document
// order. Sections are delimited by IsSectionHeading lines in a single
// pass. A section without a parent, or without content of its own,
// produces no block; an empty section can still be a parent.
func CreateHierarchicalSectionBlocks(text string) []domain.HierarchicalBlock {
	var sections []rawSection
	for _, line := range strings.Split(text, "\n") {
		if IsSectionHeading(line) {
			sections = append(sections, rawSection{heading: strings.TrimSpace(line)})
			continue
		}
		if len(sections) > 0 {
			last := &sections[len(sections)-1]
			last.content = append(last.content, line)
		}
	}

	contents := make([]string, len(sections))
	for i, s := range sections {
		contents[i] = strings.TrimSpace(strings.Join(s.content, "\n"))
	}

	var blocks []domain.HierarchicalBlock
	for i := range sections {
		if contents[i] == "" {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if !IsChild(sections[i].heading, sections[j].heading) {
				continue
			}
			parent, child := sections[j].heading, sections[i].heading
			blocks = append(blocks, domain.HierarchicalBlock{
				ParentHeading: parent,
				ChildHeading:  child,
				Text:          parent + "\n" + contents[j] + "\n" + child + "\n" + contents[i] + "\n",
			})
			break
		}
	}

	return blocks
}

// IsChild reports whether current sits below parent. The test is a plain
// prefix match on the first whitespace-delimited token, so "10" counts as
// a child of "1".
func IsChild(current, parent string) bool {
	c, p := firstToken(current), firstToken(parent)
	if c == "" || p == "" {
		return false
	}
	return c != p && strings.HasPrefix(c, p)
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
