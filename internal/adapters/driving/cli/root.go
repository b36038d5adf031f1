// Package cli provides the apiforge command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/apiforge/internal/core/ports/driving"
	"github.com/custodia-labs/apiforge/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	configPath string
	verbose    bool
)

// Services are the core services the commands drive.
type Services struct {
	Ingest       driving.IngestService
	Requirements driving.RequirementService
	Generation   driving.GenerationService

	// ServerAddr is the configured listen address for serve.
	ServerAddr string

	// Close releases stores, pools and model clients. May be nil.
	Close func() error
}

// Bootstrap builds the services from the configuration file at path. An
// empty path selects the default location.
type Bootstrap func(ctx context.Context, configPath string) (*Services, error)

var (
	bootstrap Bootstrap
	services  *Services
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "apiforge",
	Short: "Generate API test cases from documentation",
	Long: `apiforge ingests API documentation, extracts the functional requirements
it describes and generates test cases for the selected ones with an LLM.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if services != nil || !needsServices(cmd) {
		return nil
	}
	if bootstrap == nil {
		return errors.New("services not configured")
	}

	svc, err := bootstrap(cmd.Context(), configPath)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	services = svc
	return nil
}

// needsServices reports whether cmd drives the core services. Help,
// completion and annotated commands do not.
func needsServices(cmd *cobra.Command) bool {
	if cmd.Annotations[skipBootstrap] == "true" || cmd.Name() == "help" {
		return false
	}
	return !cmd.HasParent() || cmd.Parent().Name() != "completion"
}

func closeServices() {
	if services == nil || services.Close == nil {
		return
	}
	if err := services.Close(); err != nil {
		logger.Warn("close: %v", err)
	}
	services = nil
}
