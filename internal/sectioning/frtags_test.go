package sectioning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

func TestAnnotateRequirement(t *testing.T) {
	toc := "Title\n<heading>1 - Overview <no_content>\n<heading>1.1 - Create\n"
	main := domain.FRTag{Kind: domain.FRTagMain, Number: 1}

	got := AnnotateRequirement(toc, "<heading>1.1 - Create", main)
	assert.Equal(t, "Title\n<heading>1 - Overview <no_content>\n<heading>1.1 - Create<m-fr-001>\n", got)

	assert.Equal(t, got, AnnotateRequirement(got, "<heading>1.1 - Create", main), "idempotent")

	got = AnnotateRequirement(got, "<heading>1.1 - Create", domain.FRTag{Kind: domain.FRTagUsed, Number: 2})
	assert.Contains(t, got, "<heading>1.1 - Create<m-fr-001><u-fr-002>\n")

	got = AnnotateRequirement(got, "<heading>1 - Overview", domain.FRTag{Kind: domain.FRTagMain, Number: 3})
	assert.Contains(t, got, "<heading>1 - Overview <no_content><m-fr-003>\n")
}

func TestAnnotateRequirement_NoMatch(t *testing.T) {
	toc := "<heading>1 - Overview\n"
	tag := domain.FRTag{Kind: domain.FRTagMain, Number: 1}

	assert.Equal(t, toc, AnnotateRequirement(toc, "<heading>9 - Missing", tag))
	assert.Equal(t, toc, AnnotateRequirement(toc, "  ", tag))
}

func TestTOCHeading(t *testing.T) {
	assert.Equal(t, "<heading>1 - Overview", TOCHeading("<heading>1 - Overview <no_content><m-fr-003>"))
	assert.Equal(t, "<heading>1.1 - Create", TOCHeading("  <heading>1.1 - Create<m-fr-001><u-fr-002> "))
	assert.Equal(t, "Title", TOCHeading("Title"))
}
