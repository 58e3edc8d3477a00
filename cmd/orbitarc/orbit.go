package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/star/orbitarc/internal/pipeline"
	"github.com/star/orbitarc/internal/propagation"
	"github.com/star/orbitarc/internal/render"
)

// samplingFlags binds the flags that override ORBITARC_* sampling settings.
type samplingFlags struct {
	arcPeriods float64
	step       float64
	workers    int
	frame      string
	maxSamples int
}

func (f *samplingFlags) register(cmd *cobra.Command) {
	def := propagation.DefaultConfig()
	cmd.Flags().Float64Var(&f.arcPeriods, "arc-periods", def.ArcPeriods, "arc length in orbital periods")
	cmd.Flags().Float64Var(&f.step, "step", def.StepMinutes, "sampling step in minutes")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel propagation workers (default: number of CPUs)")
	cmd.Flags().StringVar(&f.frame, "frame", string(def.Frame), "output frame (teme, ecef)")
	cmd.Flags().IntVar(&f.maxSamples, "max-samples", def.MaxSamples, "grid points allowed per object")
}

// apply overlays explicitly set flags on cfg.
func (f *samplingFlags) apply(cmd *cobra.Command, cfg *propagation.Config) error {
	flags := cmd.Flags()
	if flags.Changed("arc-periods") {
		if !(f.arcPeriods > 0) {
			return fmt.Errorf("--arc-periods must be positive")
		}
		cfg.ArcPeriods = f.arcPeriods
	}
	if flags.Changed("step") {
		if !(f.step > 0) {
			return fmt.Errorf("--step must be positive")
		}
		cfg.StepMinutes = f.step
	}
	if flags.Changed("workers") {
		if f.workers < 1 {
			return fmt.Errorf("--workers must be at least 1")
		}
		cfg.Workers = f.workers
	}
	if flags.Changed("max-samples") {
		if f.maxSamples < 1 {
			return fmt.Errorf("--max-samples must be at least 1")
		}
		cfg.MaxSamples = f.maxSamples
	}
	if flags.Changed("frame") {
		fr, ok := propagation.ParseFrame(strings.ToLower(f.frame))
		if !ok {
			return fmt.Errorf("unknown frame %q", f.frame)
		}
		cfg.Frame = fr
	}
	return nil
}

func newOrbitCmd(a *app) *cobra.Command {
	var (
		sf  samplingFlags
		out string
	)

	cmd := &cobra.Command{
		Use:   "orbit LABEL=PATH [LABEL=PATH...]",
		Short: "Sample the latest element set of each file and write one scene",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadSamplingConfig(a.logger)
			if err := sf.apply(cmd, &cfg); err != nil {
				return err
			}

			sources := make([]pipeline.Source, 0, len(args))
			for _, arg := range args {
				label, path, err := parseSource(arg)
				if err != nil {
					return err
				}
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("opening %s: %w", label, err)
				}
				defer f.Close()
				sources = append(sources, pipeline.Source{Label: label, Reader: f})
			}

			a.logger.Info("sampling config",
				"arc_periods", cfg.ArcPeriods,
				"step_minutes", cfg.StepMinutes,
				"workers", cfg.Workers,
				"frame", cfg.Frame,
				"max_samples", cfg.MaxSamples,
			)

			pipe := pipeline.New(propagation.SGP4Initializer, cfg, a.logger)
			doc, err := pipe.Run(cmd.Context(), sources...)
			if err != nil {
				return err
			}

			if err := writeOutput(a, out, func(w io.Writer) error {
				return render.NewJSONSink(w, true).Render(doc)
			}); err != nil {
				return err
			}
			return render.WriteSummaries(a.stderr, doc.Objects)
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

// writeOutput runs write against path, or stdout when path is empty or "-".
func writeOutput(a *app, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(a.stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	a.logger.Info("output written", "path", path)
	return nil
}
