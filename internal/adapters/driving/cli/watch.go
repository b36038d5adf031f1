package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/apiforge/internal/adapters/driving/watch"
)

var (
	watchProject  string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest files as they change in a directory",
	Long: `Watches a directory and ingests every file that is created or modified in
it. Hidden files are ignored. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchProject, "project", "p", "", "project id (required)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a file is ingested")
	_ = watchCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	w := watch.New(args[0], watchProject, services.Ingest, watch.WithDebounce(watchDebounce))
	return w.Run(cmd.Context())
}
