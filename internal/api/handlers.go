package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/star/orbitarc/internal/geometry"
	"github.com/star/orbitarc/internal/httputil"
	"github.com/star/orbitarc/internal/pipeline"
	"github.com/star/orbitarc/internal/propagation"
	"github.com/star/orbitarc/internal/render"
	"github.com/star/orbitarc/internal/tle"
)

type handlers struct {
	logger         *slog.Logger
	store          *tle.Store
	pipe           *pipeline.Pipeline
	maxUploadBytes int64
	maxSamples     int
}

// objectInfo is one entry of GET /api/v1/objects.
type objectInfo struct {
	Label        string    `json:"label"`
	Records      int       `json:"records"`
	Malformed    int       `json:"malformed"`
	SkippedLines int       `json:"skipped_lines"`
	FirstEpoch   time.Time `json:"first_epoch"`
	LatestEpoch  time.Time `json:"latest_epoch"`
}

func (h *handlers) listObjects(w http.ResponseWriter, r *http.Request) {
	out := []objectInfo{}
	if ds := h.store.Get(); ds != nil {
		for _, label := range ds.Labels() {
			hist := ds.Histories[label]
			valid := len(hist.Valid())
			er := hist.EpochRange()
			out = append(out, objectInfo{
				Label:        label,
				Records:      valid,
				Malformed:    len(hist.Records) - valid,
				SkippedLines: len(hist.Skipped),
				FirstEpoch:   er.Min,
				LatestEpoch:  er.Max,
			})
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"objects": out})
}

func (h *handlers) objectElements(w http.ResponseWriter, r *http.Request) {
	label := r.PathValue("label")
	hist, ok := h.store.Lookup(label)
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, fmt.Sprintf("unknown object %q", label), nil)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := render.WriteElementsCSV(w, hist); err != nil {
			h.logger.Error("writing element csv", "label", label, "error", err)
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"label":    label,
		"elements": hist.Elements(),
	})
}

// storedScene renders loaded objects. Without ?labels every loaded object
// is included.
func (h *handlers) storedScene(w http.ResponseWriter, r *http.Request) {
	pipe, ok := h.samplingPipeline(w, r)
	if !ok {
		return
	}

	ds := h.store.Get()
	if ds == nil || len(ds.Histories) == 0 {
		httputil.WriteError(w, http.StatusNotFound, "no objects loaded", nil)
		return
	}

	labels := ds.Labels()
	if raw := r.URL.Query().Get("labels"); raw != "" {
		labels = splitLabels(raw)
	}

	histories := make([]*tle.History, 0, len(labels))
	for _, label := range labels {
		hist, ok := ds.Histories[label]
		if !ok {
			httputil.WriteError(w, http.StatusNotFound, fmt.Sprintf("unknown object %q", label), nil)
			return
		}
		histories = append(histories, hist)
	}

	h.renderScene(w, r, pipe, histories)
}

// uploadScene renders the latest record of a TLE file posted as the body.
func (h *handlers) uploadScene(w http.ResponseWriter, r *http.Request) {
	pipe, ok := h.samplingPipeline(w, r)
	if !ok {
		return
	}

	label := r.URL.Query().Get("label")
	if label == "" {
		label = "upload"
	}

	body := http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	hist, err := pipe.LoadHistory(r.Context(), label, body)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	h.renderScene(w, r, pipe, []*tle.History{hist})
}

func (h *handlers) renderScene(w http.ResponseWriter, r *http.Request, pipe *pipeline.Pipeline, histories []*tle.History) {
	if n := estimateSamples(histories, pipe.Config()); n > h.maxSamples {
		httputil.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("request would produce ~%d samples", n),
			map[string]any{"max_samples": h.maxSamples},
		)
		return
	}

	doc, err := pipe.Render(r.Context(), histories...)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := render.NewJSONSink(w, false).Render(doc); err != nil {
		h.logger.Error("writing scene", "error", err)
	}
}

// samplingPipeline applies ?arc and ?step overrides.
func (h *handlers) samplingPipeline(w http.ResponseWriter, r *http.Request) (*pipeline.Pipeline, bool) {
	q := r.URL.Query()
	arc, err := positiveParam(q.Get("arc"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid arc: "+err.Error(), nil)
		return nil, false
	}
	step, err := positiveParam(q.Get("step"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid step: "+err.Error(), nil)
		return nil, false
	}
	return h.pipe.WithSampling(arc, step), true
}

// writePipelineError maps pipeline failures to HTTP statuses.
func (h *handlers) writePipelineError(w http.ResponseWriter, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		httputil.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large",
			map[string]any{"max_bytes": maxBytes.Limit})
	case errors.Is(err, tle.ErrNoRecordsFound),
		errors.Is(err, propagation.ErrEmptyTrajectory),
		errors.Is(err, propagation.ErrInvalidElements),
		errors.Is(err, geometry.ErrNoSamples):
		httputil.WriteError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, propagation.ErrTooManySamples):
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httputil.WriteError(w, http.StatusServiceUnavailable, "request cancelled", nil)
	default:
		h.logger.Error("scene failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

// positiveParam parses an optional positive finite float. Empty means 0.
func positiveParam(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if !(v > 0) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("must be positive")
	}
	return v, nil
}

func splitLabels(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range strings.Split(raw, ",") {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// estimateSamples predicts grid size from the rev/day mean motion of each
// latest record, before any model is initialised.
func estimateSamples(histories []*tle.History, cfg propagation.Config) int {
	var total float64
	for _, hist := range histories {
		rec, ok := hist.Latest()
		if !ok || rec.Elements.MeanMotionRevPerDay <= 0 {
			continue
		}
		period := 1440 / rec.Elements.MeanMotionRevPerDay
		total += math.Floor(cfg.ArcPeriods*period/cfg.StepMinutes) + 1
	}
	if total > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(total)
}
