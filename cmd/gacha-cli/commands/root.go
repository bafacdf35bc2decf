package commands

import (
	"context"
	"fmt"
	"gacha-backend/internal/components/telemetry"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	config Config
	otlp   telemetry.Otel
)

var rootCmd = &cobra.Command{
	Use:   "gacha-cli",
	Short: "gacha-cli is a CLI for generating card descriptions and fetching member galleries.",
	// errors are printed once by ExecuteContext
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		config = cfg
		telemetry.InitSlog(config.Fetcher.Debug)

		otlp, err = telemetry.Setup(cmd.Context(), "gacha-cli", config.Telemetry)
		if err != nil {
			slog.Warn("failed to setup otel, continuing without it", "err", err.Error())
			otlp = telemetry.Otel{}
		}
		return nil
	},
}

// ExecuteContext runs the CLI and flushes otel before exiting, also when the command failed.
func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)

	shutdownErr := otlp.Shutdown(context.Background())
	if shutdownErr != nil {
		slog.Warn("failed to flush otel", "err", shutdownErr.Error())
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
