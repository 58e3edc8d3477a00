package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/star/orbitarc/internal/render"
	"github.com/star/orbitarc/internal/tle"
)

func newElementsCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "elements [LABEL=]PATH",
		Short: "Write the element history of a TLE file as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, path, err := parseSource(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", label, err)
			}
			defer f.Close()

			h, err := tle.ParseHistory(f, label, a.logger)
			if err != nil {
				return err
			}
			er := h.EpochRange()
			a.logger.Info("element history",
				"label", label,
				"records", len(h.Valid()),
				"malformed", len(h.Records)-len(h.Valid()),
				"first_epoch", er.Min,
				"last_epoch", er.Max,
			)

			return writeOutput(a, out, func(w io.Writer) error {
				return render.WriteElementsCSV(w, h)
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}
