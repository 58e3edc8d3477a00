package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/star/orbitarc/internal/tle"
)

var elementsHeader = []string{
	"epoch",
	"inclination_deg",
	"raan_deg",
	"eccentricity",
	"arg_perigee_deg",
	"mean_anomaly_deg",
	"mean_motion_rev_per_day",
}

// WriteElementsCSV writes the element time series of h, one row per valid
// record in file order. Malformed records are not written.
func WriteElementsCSV(w io.Writer, h *tle.History) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(elementsHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, es := range h.Elements() {
		row := []string{
			es.Epoch.UTC().Format(time.RFC3339Nano),
			formatFloat(es.InclinationDeg),
			formatFloat(es.RAANDeg),
			formatFloat(es.Eccentricity),
			formatFloat(es.ArgPerigeeDeg),
			formatFloat(es.MeanAnomalyDeg),
			formatFloat(es.MeanMotionRevPerDay),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
