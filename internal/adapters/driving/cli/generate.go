package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

// pollInterval is how often generate checks the run status.
var pollInterval = 500 * time.Millisecond

var (
	generateProject string
	generateLang    string
	generateJSON    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate test cases for the selected requirements",
	Long: `Runs test-case generation for every selected functional requirement of the
project and waits for it to finish. Use "requirements select" to choose
which requirements take part.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var suitesCmd = &cobra.Command{
	Use:   "suites",
	Short: "Print the generated test suites of a project",
	Args:  cobra.NoArgs,
	RunE:  runSuites,
}

func init() {
	generateCmd.Flags().StringVarP(&generateProject, "project", "p", "", "project id (required)")
	generateCmd.Flags().StringVarP(&generateLang, "lang", "l", "", "language of the generated text (required)")
	_ = generateCmd.MarkFlagRequired("project")
	_ = generateCmd.MarkFlagRequired("lang")

	suitesCmd.Flags().StringVarP(&generateProject, "project", "p", "", "project id (required)")
	suitesCmd.Flags().BoolVar(&generateJSON, "json", false, "output suites as JSON")
	_ = suitesCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(suitesCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	run, err := services.Generation.Start(ctx, generateProject, generateLang)
	if err != nil {
		return fmt.Errorf("start generation: %w", err)
	}
	cmd.Printf("Run %s started\n", run.ID)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			status, err := services.Generation.Status(ctx, run.ID)
			if err != nil {
				return fmt.Errorf("run status: %w", err)
			}
			switch status.Status {
			case domain.RunCompleted:
				cmd.Printf("Generated %d test cases for %d requirements\n", status.Generated, status.Groups)
				return nil
			case domain.RunFailed:
				return errors.New("generation failed: " + status.Error)
			}
		}
	}
}

func runSuites(cmd *cobra.Command, _ []string) error {
	suites, err := services.Generation.TestSuites(cmd.Context(), generateProject)
	if err != nil {
		return fmt.Errorf("list test suites: %w", err)
	}

	if generateJSON {
		data, err := json.MarshalIndent(suites, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal suites: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(suites) == 0 {
		cmd.Println("No test suites.")
		return nil
	}
	for _, s := range suites {
		cmd.Printf("%s %s %s (%d cases)\n", s.Suite.Name, s.Suite.Method, s.Suite.URL, len(s.Cases))
	}
	return nil
}
