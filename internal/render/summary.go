package render

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// WriteSummaries prints one aligned line per object for terminal output.
func WriteSummaries(w io.Writer, objs []ObjectSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tEPOCH\tINCL(deg)\tPERIOD(min)\tSAMPLES\tFAILED")
	for _, o := range objs {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.2f\t%d\t%d\n",
			o.Label,
			o.Epoch.UTC().Format(time.RFC3339),
			o.InclinationDeg,
			o.PeriodMinutes,
			o.Samples,
			o.FailedSamples,
		)
	}
	return tw.Flush()
}
