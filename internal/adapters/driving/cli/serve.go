package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/apiforge/internal/adapters/driving/httpapi"
)

var (
	serveAddr     string
	serveOrigins  []string
	serveUploadMB int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves document upload, requirement selection and test-case generation
over HTTP until interrupted. Generation requests are acknowledged at once and
run in the background; poll /test-entities/runs/{run_id} for the outcome.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to server.addr)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "allowed CORS origins (default all)")
	serveCmd.Flags().Int64Var(&serveUploadMB, "max-upload-mb", httpapi.DefaultMaxUploadSize>>20, "largest accepted upload in MiB")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	srv, err := httpapi.New(
		services.Ingest,
		services.Requirements,
		services.Generation,
		httpapi.WithAllowedOrigins(serveOrigins...),
		httpapi.WithMaxUploadSize(serveUploadMB<<20),
	)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = services.ServerAddr
	}
	if addr == "" {
		return errors.New("no listen address: set --addr or server.addr")
	}

	cmd.Printf("Listening on %s\n", addr)
	return srv.ListenAndServe(cmd.Context(), addr)
}
