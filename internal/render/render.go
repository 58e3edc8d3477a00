// Package render is the boundary to rendering sinks. It does not draw
// anything; it hands a framed scene plus per-object summaries to a Sink.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/star/orbitarc/internal/geometry"
	"github.com/star/orbitarc/internal/propagation"
)

// ObjectSummary describes one rendered object.
type ObjectSummary struct {
	Label          string            `json:"label"`
	Epoch          time.Time         `json:"epoch"`
	InclinationDeg float64           `json:"inclination_deg"`
	PeriodMinutes  float64           `json:"period_minutes"`
	Samples        int               `json:"samples"`
	FailedSamples  int               `json:"failed_samples"`
	Frame          propagation.Frame `json:"frame"`
}

// Summarize builds the summary of a sampled trajectory.
func Summarize(t *propagation.Trajectory) ObjectSummary {
	return ObjectSummary{
		Label:          t.Label,
		Epoch:          t.Source.Epoch,
		InclinationDeg: t.Source.InclinationDeg,
		PeriodMinutes:  t.PeriodMinutes,
		Samples:        len(t.Samples),
		FailedSamples:  t.FailedCount(),
		Frame:          t.Frame,
	}
}

// Document is everything a sink needs to draw one figure.
type Document struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Objects     []ObjectSummary `json:"objects"`
	Scene       *geometry.Scene `json:"scene"`
}

// Sink consumes a framed document.
type Sink interface {
	Render(doc *Document) error
}

// JSONSink writes documents as JSON.
type JSONSink struct {
	w      io.Writer
	indent bool
}

// NewJSONSink creates a sink writing to w. Indented output is meant for files
// a person may open; the API writes compact documents.
func NewJSONSink(w io.Writer, indent bool) *JSONSink {
	return &JSONSink{w: w, indent: indent}
}

// Render encodes doc followed by a newline.
func (s *JSONSink) Render(doc *Document) error {
	if doc == nil || doc.Scene == nil {
		return fmt.Errorf("render: empty document")
	}
	enc := json.NewEncoder(s.w)
	if s.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("render: encoding document: %w", err)
	}
	return nil
}
