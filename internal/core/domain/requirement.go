package domain

import (
	"fmt"
	"time"
)

// FunctionalRequirementGroup is a named cluster of related API functionality.
// The selected groups of a project form the generation work queue.
type FunctionalRequirementGroup struct {
	ID         string
	ProjectID  string
	Group      string
	Number     int
	IsSelected bool
	CreatedAt  time.Time
}

// FRTagKind distinguishes where a requirement was found.
type FRTagKind string

const (
	// FRTagMain marks the parent heading a requirement was found under.
	FRTagMain FRTagKind = "m"

	// FRTagUsed marks a child heading that contributed to a requirement.
	FRTagUsed FRTagKind = "u"
)

// FRTag is the in-line requirement marker stored in a table of contents.
type FRTag struct {
	Kind   FRTagKind
	Number int
}

// String renders the tag, e.g. "<m-fr-007>".
func (t FRTag) String() string {
	return fmt.Sprintf("<%s-fr-%03d>", t.Kind, t.Number)
}
