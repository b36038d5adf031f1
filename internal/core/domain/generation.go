package domain

import (
	"encoding/json"
	"time"
)

// Progress is the loop state of a generation run.
type Progress string

// Progress values.
const (
	ProgressInProgress Progress = "in_progress"
	ProgressCompleted  Progress = "completed"
)

// TestCaseInfo accumulates what one requirement group produced.
type TestCaseInfo struct {
	APIInfo   APIInfo
	TestSuite *TestSuite
	TestCases []TestCase
}

// GenerationState is the accumulator threaded through every step of a
// generation run. Each run owns its state exclusively.
type GenerationState struct {
	ProjectID string
	Lang      string

	// FRGroups is the work queue; the generate step pops its head.
	FRGroups []string

	// FRInfos are the selected groups in processing order.
	FRInfos []FunctionalRequirementGroup

	// CurrentIndex points into FRInfos; -1 before the first dispatch.
	CurrentIndex int

	// DocsTOC is the combined table of contents of every project document.
	DocsTOC string

	// Collected and Standardized are keyed by requirement group ID.
	Collected    map[string]string
	Standardized map[string]string

	Progress Progress

	// TestCaseInfos is keyed by requirement group ID.
	TestCaseInfos map[string]*TestCaseInfo

	// TestCases holds every generated payload in generation order.
	TestCases []json.RawMessage

	// Flushed records that results were persisted.
	Flushed bool
}

// NewGenerationState returns an empty state for a run.
func NewGenerationState(projectID, lang string) *GenerationState {
	return &GenerationState{
		ProjectID:     projectID,
		Lang:          lang,
		CurrentIndex:  -1,
		Collected:     make(map[string]string),
		Standardized:  make(map[string]string),
		TestCaseInfos: make(map[string]*TestCaseInfo),
	}
}

// CurrentFR returns the group at CurrentIndex.
func (s *GenerationState) CurrentFR() (FunctionalRequirementGroup, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.FRInfos) {
		return FunctionalRequirementGroup{}, false
	}
	return s.FRInfos[s.CurrentIndex], true
}

// Info returns the accumulator entry for a group, creating it on first use.
func (s *GenerationState) Info(frID string) *TestCaseInfo {
	info, ok := s.TestCaseInfos[frID]
	if !ok {
		info = &TestCaseInfo{}
		s.TestCaseInfos[frID] = info
	}
	return info
}

// RunStatus is the lifecycle state of a generation run.
type RunStatus string

// Run statuses.
const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// GenerationRun is the persisted record callers poll to observe a run.
type GenerationRun struct {
	ID         string
	ProjectID  string
	Lang       string
	Status     RunStatus
	Error      string
	Groups     int
	Generated  int
	StartedAt  time.Time
	FinishedAt *time.Time
}
