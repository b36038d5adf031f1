package sectioning

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

var (
	numberedPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)[.\):\-]?\s+(.+)`)
	romanPattern    = regexp.MustCompile(`^\s*([IVXLCDM]+)[.\):\-]?\s+(.+)`)

	// Latin plus Vietnamese uppercase letters and spaces, at least five runes.
	uppercasePattern = regexp.MustCompile(`^[A-ZÀÁẢÃẠĂẰẮẲẴẶÂẦẤẨẪẬĐÈÉẺẼẸÊỀẾỂỄỆÌÍỈĨỊÒÓỎÕỌÔỒỐỔỖỘƠỜỚỞỠỢÙÚỦŨỤƯỪỨỬỮỰỲÝỶỸỴ ]{5,}$`)
)

// DetectHeading recognises a heading line and extracts its identifier and
// title. Rules are tried in order and the first match wins: numbered
// ("1.2 Title"), roman ("IV. Title"), then each extra pattern. A match on
// an extra pattern returns the pattern source as the identifier with no
// title, so callers must order extra patterns by precedence.
func DetectHeading(line string, extraPatterns []*regexp.Regexp, annotation string) (domain.HeadingMatch, bool) {
	stripped := stripMarkers(line)

	if m := numberedPattern.FindStringSubmatch(stripped); m != nil {
		return domain.HeadingMatch{Identifier: m[1], Title: cleanTitle(m[2], annotation), RawLine: line}, true
	}
	if m := romanPattern.FindStringSubmatch(stripped); m != nil {
		return domain.HeadingMatch{Identifier: m[1], Title: cleanTitle(m[2], annotation), RawLine: line}, true
	}
	for _, p := range extraPatterns {
		if p != nil && p.MatchString(stripped) {
			return domain.HeadingMatch{Identifier: p.String(), RawLine: line}, true
		}
	}

	return domain.HeadingMatch{}, false
}

// IsSectionHeading reports whether a line is a numbered, roman-numeral or
// uppercase heading. It only classifies; no title is extracted.
func IsSectionHeading(line string) bool {
	if numberedPattern.MatchString(line) || romanPattern.MatchString(line) {
		return true
	}
	return strings.TrimSpace(line) != "" && uppercasePattern.MatchString(line)
}

// stripMarkers removes leading markdown heading markers and whitespace.
func stripMarkers(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "#")
	return strings.TrimSpace(s)
}

func cleanTitle(title, annotation string) string {
	title = strings.TrimSpace(title)
	if annotation != "" {
		title = strings.TrimSpace(strings.TrimSuffix(title, annotation))
	}
	return title
}
