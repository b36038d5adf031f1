package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driving"
)

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"serve", "ingest", "documents", "watch", "generate", "suites", "requirements", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestSetup_Bootstrap(t *testing.T) {
	oldBootstrap, oldPath := bootstrap, configPath
	defer func() {
		bootstrap, configPath = oldBootstrap, oldPath
		services = nil
	}()

	var gotPath string
	SetBootstrap(func(_ context.Context, path string) (*Services, error) {
		gotPath = path
		return &Services{Requirements: &mockRequirements{}}, nil
	})
	configPath = "/etc/apiforge/config.toml"

	require.NoError(t, setup(requirementsListCmd, nil))
	assert.Equal(t, "/etc/apiforge/config.toml", gotPath)
	require.NotNil(t, services)
}

func TestSetup_Errors(t *testing.T) {
	oldBootstrap := bootstrap
	defer func() {
		bootstrap = oldBootstrap
		services = nil
	}()

	bootstrap = nil
	assert.EqualError(t, setup(requirementsListCmd, nil), "services not configured")

	SetBootstrap(func(context.Context, string) (*Services, error) {
		return nil, errors.New("no database")
	})
	err := setup(requirementsListCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database")

	assert.NoError(t, setup(versionCmd, nil), "version runs without services")
}

func TestNeedsServices(t *testing.T) {
	assert.False(t, needsServices(versionCmd))
	assert.False(t, needsServices(&cobra.Command{Use: "help"}))
	assert.True(t, needsServices(generateCmd))
}

func TestCloseServices(t *testing.T) {
	closed := false
	services = &Services{Close: func() error {
		closed = true
		return nil
	}}
	closeServices()
	assert.True(t, closed)
	assert.Nil(t, services)
}

func TestIngestCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.md")
	require.NoError(t, os.WriteFile(path, []byte("# Guide"), 0o644))

	ingest := &mockIngest{}
	out, err := execute(&Services{Ingest: ingest}, "ingest", "--project", "proj-1", path)
	require.NoError(t, err)

	require.Len(t, ingest.raws, 1)
	assert.Equal(t, "proj-1", ingest.raws[0].ProjectID)
	assert.Equal(t, "text/markdown", ingest.raws[0].MIMEType)
	assert.Contains(t, out, "guide.md: 2 sections")
}

func TestIngestCmd_ReportsRequirementsBeforeFailing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o644))

	ingest := &mockIngest{
		result: &driving.IngestResult{
			Sections:     1,
			Requirements: []domain.FunctionalRequirementGroup{{Group: "Create user", Number: 7}},
		},
		err: errors.New("model offline"),
	}
	out, err := execute(&Services{Ingest: ingest}, "ingest", "-p", "proj-1", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
	assert.Contains(t, out, "FR-007 Create user")
}

func TestIngestCmd_MissingFile(t *testing.T) {
	_, err := execute(&Services{Ingest: &mockIngest{}}, "ingest", "-p", "proj-1", "/nonexistent/file.md")
	assert.Error(t, err)
}

func TestDocumentsCmd(t *testing.T) {
	ingest := &mockIngest{docs: []domain.DocumentMetadata{{ID: "doc-1", Name: "guide.md", MIMEType: "text/markdown"}}}
	out, err := execute(&Services{Ingest: ingest}, "documents", "-p", "proj-1")
	require.NoError(t, err)
	assert.Contains(t, out, "doc-1  guide.md  text/markdown")
}

func TestRequirementsListCmd(t *testing.T) {
	reqs := &mockRequirements{groups: []domain.FunctionalRequirementGroup{
		{ID: "fr-1", Group: "Create user", Number: 1, IsSelected: true},
		{ID: "fr-2", Group: "Delete user", Number: 2},
	}}
	out, err := execute(&Services{Requirements: reqs}, "requirements", "list", "-p", "proj-1")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] FR-001 Create user  (fr-1)")
	assert.Contains(t, out, "[ ] FR-002 Delete user  (fr-2)")
}

func TestRequirementsSelectCmd(t *testing.T) {
	defer func() { deselect = false }()
	reqs := &mockRequirements{}

	out, err := execute(&Services{Requirements: reqs}, "requirements", "select", "fr-1", "fr-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"fr-1", "fr-2"}, reqs.ids)
	assert.True(t, reqs.selected)
	assert.Contains(t, out, "Selected 2 requirement groups")

	_, err = execute(&Services{Requirements: reqs}, "requirements", "select", "--off", "fr-1")
	require.NoError(t, err)
	assert.False(t, reqs.selected)
}

func TestGenerateCmd_Completes(t *testing.T) {
	oldPoll := pollInterval
	pollInterval = time.Millisecond
	defer func() { pollInterval = oldPoll }()

	gen := &mockGeneration{statuses: []domain.GenerationRun{
		{Status: domain.RunRunning},
		{Status: domain.RunCompleted, Generated: 3, Groups: 3},
	}}
	out, err := execute(&Services{Generation: gen}, "generate", "-p", "proj-1", "-l", "python")
	require.NoError(t, err)
	assert.Contains(t, out, "Run run-1 started")
	assert.Contains(t, out, "Generated 3 test cases for 3 requirements")
	assert.Equal(t, 2, gen.polls)
}

func TestGenerateCmd_Fails(t *testing.T) {
	oldPoll := pollInterval
	pollInterval = time.Millisecond
	defer func() { pollInterval = oldPoll }()

	gen := &mockGeneration{statuses: []domain.GenerationRun{{Status: domain.RunFailed, Error: "standardize failed"}}}
	_, err := execute(&Services{Generation: gen}, "generate", "-p", "proj-1", "-l", "go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "standardize failed")
}

func TestSuitesCmd(t *testing.T) {
	defer func() { generateJSON = false }()
	gen := &mockGeneration{suites: []driving.SuiteWithCases{{
		Suite: domain.TestSuite{Name: "Create user", Method: domain.HTTPMethod("POST"), URL: "https://api.example.com/users"},
		Cases: []domain.TestCase{{ID: "c1", Payload: json.RawMessage(`{"name":"ok"}`)}},
	}}}

	out, err := execute(&Services{Generation: gen}, "suites", "-p", "proj-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Create user POST https://api.example.com/users (1 cases)")

	out, err = execute(&Services{Generation: gen}, "suites", "-p", "proj-1", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"Name": "Create user"`)
}
