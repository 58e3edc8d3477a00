package tle

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/star/orbitarc/internal/metrics"
)

// epochPattern finds the YYDDD.FFFFFFFF epoch field on line 1 regardless of
// the spacing around it.
var epochPattern = regexp.MustCompile(`(?i)\s(\d{5}\.\d+)`)

// Line 2 column ranges (0-indexed, end exclusive).
var (
	colInclination = [2]int{8, 16}
	colRAAN        = [2]int{17, 25}
	colEccentric   = [2]int{26, 33}
	colArgPerigee  = [2]int{34, 42}
	colMeanAnomaly = [2]int{43, 51}
	colMeanMotion  = [2]int{52, 63}
)

// ParseHistory reads a TLE source and decodes every pair it contains.
// Malformed pairs are kept in the history with their error; an input that
// produces no valid record fails with ErrNoRecordsFound.
func ParseHistory(r io.Reader, label string, logger *slog.Logger) (*History, error) {
	pairs, skipped, err := ReadPairs(r, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	h := &History{
		Label:   label,
		Records: DecodeAll(pairs, logger),
		Skipped: skipped,
	}

	valid := len(h.Valid())
	if valid == 0 {
		return nil, fmt.Errorf("%s: %w: all %d pairs malformed", label, ErrNoRecordsFound, len(pairs))
	}

	logger.Debug("TLE history parsed",
		"label", label,
		"pairs", len(pairs),
		"valid", valid,
		"malformed", len(pairs)-valid,
	)
	return h, nil
}

// DecodeAll decodes each pair independently. A failing pair never stops the
// ones after it.
func DecodeAll(pairs []LinePair, logger *slog.Logger) []Record {
	records := make([]Record, 0, len(pairs))
	var bad int
	for _, p := range pairs {
		es, err := Decode(p)
		if err != nil {
			bad++
			logger.Warn("skipping malformed TLE pair",
				"event", "tle_record_malformed",
				"line_number", p.LineNumber,
				"line1", p.Line1,
				"line2", p.Line2,
				"error", err,
			)
		}
		records = append(records, Record{Pair: p, Elements: es, Err: err})
	}
	metrics.RecordTLERecords(len(pairs)-bad, bad)
	return records
}

// Decode extracts the element set from one pair. Numeric fields come from
// fixed columns of line 2; the epoch is located on line 1 by pattern.
func Decode(p LinePair) (ElementSet, error) {
	m := epochPattern.FindStringSubmatch(p.Line1)
	if m == nil {
		return ElementSet{}, &RecordError{LineNumber: p.LineNumber, Field: "epoch", Line: p.Line1}
	}
	epoch, err := ParseEpoch(m[1])
	if err != nil {
		return ElementSet{}, &RecordError{LineNumber: p.LineNumber, Field: "epoch", Line: p.Line1, Err: err}
	}

	es := ElementSet{Epoch: epoch}
	fields := []struct {
		name string
		cols [2]int
		dst  *float64
	}{
		{"inclination", colInclination, &es.InclinationDeg},
		{"raan", colRAAN, &es.RAANDeg},
		{"arg_perigee", colArgPerigee, &es.ArgPerigeeDeg},
		{"mean_anomaly", colMeanAnomaly, &es.MeanAnomalyDeg},
		{"mean_motion", colMeanMotion, &es.MeanMotionRevPerDay},
	}
	for _, f := range fields {
		v, err := parseFloat(column(p.Line2, f.cols))
		if err != nil {
			return ElementSet{}, &RecordError{LineNumber: p.LineNumber, Field: f.name, Line: p.Line2, Err: err}
		}
		*f.dst = v
	}

	// Eccentricity is stored without its leading "0.".
	ecc, err := parseFloat("0." + strings.TrimSpace(column(p.Line2, colEccentric)))
	if err != nil {
		return ElementSet{}, &RecordError{LineNumber: p.LineNumber, Field: "eccentricity", Line: p.Line2, Err: err}
	}
	es.Eccentricity = ecc

	return es, nil
}

// ParseEpoch converts a TLE epoch string in YYDDD.FFFFFFFF format to UTC.
// Years are always read as 2000+YY. The year multiple is stripped first, then
// the remainder is split into a 1-based day of year and a fraction of a day.
// Days outside the year roll over the calendar: day 0 is December 31 of the
// previous year.
func ParseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	raw, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch %q: %w", s, err)
	}
	yy, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}

	dayAndFraction := raw - float64(yy*1000)
	dayOfYear := math.Floor(dayAndFraction)
	fraction := dayAndFraction - dayOfYear
	if dayOfYear < 0 {
		return time.Time{}, fmt.Errorf("negative epoch day of year in %q", s)
	}

	t := time.Date(2000+yy, time.January, 1, 0, 0, 0, 0, time.UTC)
	t = t.AddDate(0, 0, int(dayOfYear)-1)
	// Fraction of a full 86400 s day, to the microsecond.
	t = t.Add(time.Duration(math.Round(fraction*86400e6)) * time.Microsecond)
	return t, nil
}

// column returns line[start:end], clamped to the line length.
func column(line string, cols [2]int) string {
	start, end := cols[0], cols[1]
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return line[start:end]
}

var errEmptyField = errors.New("empty field")

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyField
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}
