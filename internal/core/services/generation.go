package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/core/ports/driving"
	"github.com/custodia-labs/apiforge/internal/core/workflow"
	"github.com/custodia-labs/apiforge/internal/logger"
)

// Ensure GenerationService implements the interface.
var _ driving.GenerationService = (*GenerationService)(nil)

// Submitter schedules background work. *workerpool.Pool satisfies it.
type Submitter interface {
	Submit(task func()) error
}

// GenerationService runs the generation workflow and tracks each run.
type GenerationService struct {
	graph     *workflow.Graph
	runStore  driven.RunStore
	caseStore driven.TestCaseStore
	pool      Submitter
	now       func() time.Time

	wg sync.WaitGroup
}

// NewGenerationService creates a new generation service. Background runs
// are submitted to pool.
func NewGenerationService(
	graph *workflow.Graph,
	runStore driven.RunStore,
	caseStore driven.TestCaseStore,
	pool Submitter,
) *GenerationService {
	return &GenerationService{
		graph:     graph,
		runStore:  runStore,
		caseStore: caseStore,
		pool:      pool,
		now:       time.Now,
	}
}

// Start records a pending run and executes it in the background. The run
// outlives ctx; its outcome is only visible through Status.
func (s *GenerationService) Start(ctx context.Context, projectID, lang string) (*domain.GenerationRun, error) {
	run, err := s.newRun(ctx, projectID, lang)
	if err != nil {
		return nil, err
	}
	snapshot := *run

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		task := func() {
			defer s.wg.Done()
			_ = s.execute(bg, run)
		}
		if err := s.pool.Submit(task); err != nil {
			s.finish(bg, run, nil, fmt.Errorf("schedule run: %w", err))
			s.wg.Done()
		}
	}()

	return &snapshot, nil
}

// Run executes a run to completion in the caller's goroutine.
func (s *GenerationService) Run(ctx context.Context, projectID, lang string) (*domain.GenerationRun, error) {
	run, err := s.newRun(ctx, projectID, lang)
	if err != nil {
		return nil, err
	}
	if err := s.execute(ctx, run); err != nil {
		return run, err
	}
	return run, nil
}

// Status returns the current state of a run.
func (s *GenerationService) Status(ctx context.Context, runID string) (*domain.GenerationRun, error) {
	run, err := s.runStore.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// TestSuites returns the persisted suites of a project with their cases.
func (s *GenerationService) TestSuites(ctx context.Context, projectID string) ([]driving.SuiteWithCases, error) {
	suites, err := s.caseStore.ListTestSuites(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list test suites: %w", err)
	}

	out := make([]driving.SuiteWithCases, 0, len(suites))
	for _, suite := range suites {
		cases, err := s.caseStore.ListTestCases(ctx, suite.ID)
		if err != nil {
			return nil, fmt.Errorf("list cases of %s: %w", suite.ID, err)
		}
		out = append(out, driving.SuiteWithCases{Suite: suite, Cases: cases})
	}
	return out, nil
}

// Wait blocks until every background run has finished.
func (s *GenerationService) Wait() {
	s.wg.Wait()
}

func (s *GenerationService) newRun(ctx context.Context, projectID, lang string) (*domain.GenerationRun, error) {
	projectID = strings.TrimSpace(projectID)
	lang = strings.TrimSpace(lang)
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", domain.ErrInvalidInput)
	}
	if lang == "" {
		return nil, fmt.Errorf("%w: language is required", domain.ErrInvalidInput)
	}

	run := &domain.GenerationRun{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Lang:      lang,
		Status:    domain.RunPending,
		StartedAt: s.now(),
	}
	if err := s.runStore.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	return run, nil
}

// execute drives the workflow for run and records the outcome.
func (s *GenerationService) execute(ctx context.Context, run *domain.GenerationRun) error {
	run.Status = domain.RunRunning
	if err := s.runStore.SaveRun(ctx, run); err != nil {
		logger.Warn("generation %s: save status: %v", run.ID, err)
	}
	logger.Info("generation %s: started for project %s (%s)", run.ID, run.ProjectID, run.Lang)

	state := domain.NewGenerationState(run.ProjectID, run.Lang)
	err := s.graph.Run(ctx, state)
	s.finish(ctx, run, state, err)
	return err
}

func (s *GenerationService) finish(ctx context.Context, run *domain.GenerationRun, state *domain.GenerationState, err error) {
	finished := s.now()
	run.FinishedAt = &finished
	if state != nil {
		run.Groups = len(state.FRInfos)
		run.Generated = len(state.TestCases)
	}

	if err != nil {
		run.Status = domain.RunFailed
		run.Error = err.Error()
		logger.Error("generation %s: %v", run.ID, err)
	} else {
		run.Status = domain.RunCompleted
		logger.Info("generation %s: %d test cases for %d groups", run.ID, run.Generated, run.Groups)
	}

	if err := s.runStore.SaveRun(ctx, run); err != nil {
		logger.Warn("generation %s: save status: %v", run.ID, err)
	}
}
