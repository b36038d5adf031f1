package sectioning

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	spaceRun   = regexp.MustCompile(` {2,}`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalises extracted text before sectioning: unified line
// endings, no control characters, single spaces, trimmed line ends and at
// most one blank line between paragraphs.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.NewReplacer("\r", "\n", "\f", "\n", "\t", " ", "\u00a0", " ").Replace(text)
	text = strings.Map(func(r rune) rune {
		if r != '\n' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(spaceRun.ReplaceAllString(line, " "), " ")
	}

	text = blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}
