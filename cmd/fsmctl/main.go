// Command fsmctl is the operator tool for the field service backend:
// schema migrations, reference data seeding and assignment queue inspection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"
)

var rootCmd = &cobra.Command{
	Use:           "fsmctl",
	Short:         "Field service operator tool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env loads the shared configuration and a logger for one command run.
func env() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadOps()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg.Env), nil
}
