package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
)

// Ensure TestCaseStore implements the interface.
var _ driven.TestCaseStore = (*TestCaseStore)(nil)

// TestCaseStore is an in-memory implementation of driven.TestCaseStore.
type TestCaseStore struct {
	mu     sync.RWMutex
	suites []domain.TestSuite // insertion order
	cases  map[string][]domain.TestCase
}

// NewTestCaseStore creates a new in-memory test case store.
func NewTestCaseStore() *TestCaseStore {
	return &TestCaseStore{
		cases: make(map[string][]domain.TestCase),
	}
}

// SaveTestSuite stores or updates a suite header.
func (s *TestCaseStore) SaveTestSuite(_ context.Context, suite *domain.TestSuite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.suites {
		if s.suites[i].ID == suite.ID {
			s.suites[i] = *suite
			return nil
		}
	}
	s.suites = append(s.suites, *suite)
	return nil
}

// SaveTestCases stores a batch of cases. Every case must belong to a
// saved suite, otherwise nothing is stored.
func (s *TestCaseStore) SaveTestCases(_ context.Context, cases []domain.TestCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range cases {
		if !s.hasSuite(c.SuiteID) {
			return domain.ErrNotFound
		}
	}
	for _, c := range cases {
		s.cases[c.SuiteID] = append(s.cases[c.SuiteID], c)
	}
	return nil
}

func (s *TestCaseStore) hasSuite(id string) bool {
	for i := range s.suites {
		if s.suites[i].ID == id {
			return true
		}
	}
	return false
}

// ListTestSuites returns the suites of a project, oldest first.
func (s *TestCaseStore) ListTestSuites(_ context.Context, projectID string) ([]domain.TestSuite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.TestSuite
	for _, suite := range s.suites {
		if suite.ProjectID == projectID {
			result = append(result, suite)
		}
	}
	return result, nil
}

// ListTestCases returns the cases of a suite in position order.
func (s *TestCaseStore) ListTestCases(_ context.Context, suiteID string) ([]domain.TestCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := append([]domain.TestCase(nil), s.cases[suiteID]...)
	sort.SliceStable(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}
