package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/apiforge/internal/adapters/driving/watch"
)

var ingestProject string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest documentation files",
	Long: `Normalises, sections and stores each file under the project, then extracts
the functional requirements it describes. Files are processed in order and
the first failure stops the command.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List the documents of a project",
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestProject, "project", "p", "", "project id (required)")
	_ = ingestCmd.MarkFlagRequired("project")
	documentsCmd.Flags().StringVarP(&ingestProject, "project", "p", "", "project id (required)")
	_ = documentsCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	for _, path := range args {
		raw, err := watch.LoadFile(path, ingestProject)
		if err != nil {
			return err
		}

		result, err := services.Ingest.Ingest(cmd.Context(), raw)
		if err != nil && result == nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}

		cmd.Printf("%s: %d sections, %d blocks\n", raw.Name, result.Sections, result.Blocks)
		for _, g := range result.Requirements {
			cmd.Printf("  FR-%03d %s\n", g.Number, g.Group)
		}
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
	}
	return nil
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	docs, err := services.Ingest.ListDocuments(cmd.Context(), ingestProject)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}
	for _, d := range docs {
		cmd.Printf("%s  %s  %s\n", d.ID, d.Name, d.MIMEType)
	}
	return nil
}
