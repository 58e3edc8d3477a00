package tle

import "time"

// LinePair is one validated two-line record: Line1 starts with "1 " and
// Line2 starts with "2 ".
type LinePair struct {
	Line1 string
	Line2 string
	// LineNumber is the 1-based position of Line1 among the non-blank input lines.
	LineNumber int
}

// ElementSet holds the mean orbital elements decoded from one LinePair.
type ElementSet struct {
	Epoch               time.Time `json:"epoch"`
	InclinationDeg      float64   `json:"inclination_deg"`
	RAANDeg             float64   `json:"raan_deg"`
	Eccentricity        float64   `json:"eccentricity"`
	ArgPerigeeDeg       float64   `json:"arg_perigee_deg"`
	MeanAnomalyDeg      float64   `json:"mean_anomaly_deg"`
	MeanMotionRevPerDay float64   `json:"mean_motion_rev_per_day"`
}

// SkippedLine records a line the reader dropped while realigning on pair boundaries.
type SkippedLine struct {
	LineNumber int
	Content    string
}

// Record is the outcome of decoding one LinePair. Exactly one of Elements
// (when Err is nil) or Err is meaningful.
type Record struct {
	Pair     LinePair
	Elements ElementSet
	Err      error
}

// OK reports whether the record decoded cleanly.
func (r Record) OK() bool {
	return r.Err == nil
}

// History is the ordered element history decoded from one TLE source.
type History struct {
	Label   string
	Records []Record
	Skipped []SkippedLine
}

// Valid returns the successfully decoded records in file order.
func (h *History) Valid() []Record {
	out := make([]Record, 0, len(h.Records))
	for _, r := range h.Records {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Elements returns the decoded element sets in file order.
func (h *History) Elements() []ElementSet {
	valid := h.Valid()
	out := make([]ElementSet, len(valid))
	for i, r := range valid {
		out[i] = r.Elements
	}
	return out
}

// Latest returns the last successfully decoded record. The second return
// value is false when the history holds no valid record.
func (h *History) Latest() (Record, bool) {
	for i := len(h.Records) - 1; i >= 0; i-- {
		if h.Records[i].OK() {
			return h.Records[i], true
		}
	}
	return Record{}, false
}

// EpochRange represents the minimum and maximum epoch times in a history.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// EpochRange returns the span covered by the valid records.
func (h *History) EpochRange() EpochRange {
	var er EpochRange
	for _, r := range h.Valid() {
		e := r.Elements.Epoch
		if er.Min.IsZero() || e.Before(er.Min) {
			er.Min = e
		}
		if er.Max.IsZero() || e.After(er.Max) {
			er.Max = e
		}
	}
	return er
}
