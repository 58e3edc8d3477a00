package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/star/orbitarc/internal/tracing"
)

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "orbitarc: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand shares once the root command has
// parsed its persistent flags.
type app struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger

	logLevel  string
	logFormat string

	shutdownTracing func(context.Context) error
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "orbitarc",
		Short: "Decode archival TLEs and sample orbit arcs for rendering",
		Long: `orbitarc reads two-line element histories, samples the latest
element set of each object over a number of orbital periods with SGP4,
and frames the resulting trajectories in one equal-aspect scene.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(a.stderr, a.logLevel, a.logFormat)
			if err != nil {
				return err
			}
			a.logger = logger

			tcfg := loadTracingConfig(logger)
			tcfg.Writer = a.stderr
			shutdown, err := tracing.Init(cmd.Context(), tcfg, logger)
			if err != nil {
				return fmt.Errorf("initialising tracing: %w", err)
			}
			a.shutdownTracing = shutdown
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			tracing.ShutdownWithTimeout(context.Background(), a.shutdownTracing, a.logger)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", envOr("ORBITARC_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", envOr("ORBITARC_LOG_FORMAT", "json"), "log format (json, text)")

	root.AddCommand(
		newOrbitCmd(a),
		newElementsCmd(a),
		newFetchCmd(a),
		newServeCmd(a),
	)
	return root
}
