// Package pipeline wires the stages together: TLE text is read and decoded,
// the latest record of each object is sampled, and the trajectories are
// framed into one render document.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/star/orbitarc/internal/geometry"
	"github.com/star/orbitarc/internal/propagation"
	"github.com/star/orbitarc/internal/render"
	"github.com/star/orbitarc/internal/tle"
)

var tracer = otel.Tracer("github.com/star/orbitarc/internal/pipeline")

// Source is one labelled TLE input.
type Source struct {
	Label  string
	Reader io.Reader
}

// Pipeline runs Reader → Extractor → Sampler → Aggregator. It holds no
// state between runs.
type Pipeline struct {
	init    propagation.Initializer
	sampler *propagation.Sampler
	logger  *slog.Logger
	mesh    int
	now     func() time.Time
}

// New creates a pipeline sampling with cfg through init.
func New(init propagation.Initializer, cfg propagation.Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		init:    init,
		sampler: propagation.NewSampler(init, cfg, logger),
		logger:  logger,
		mesh:    geometry.DefaultMeshResolution,
		now:     time.Now,
	}
}

// Config returns the effective sampling configuration.
func (p *Pipeline) Config() propagation.Config {
	return p.sampler.Config()
}

// WithSampling returns a pipeline sharing p's capability but sampling
// arcPeriods periods at stepMinutes. Non-positive values keep p's settings.
func (p *Pipeline) WithSampling(arcPeriods, stepMinutes float64) *Pipeline {
	cfg := p.sampler.Config()
	if arcPeriods > 0 {
		cfg.ArcPeriods = arcPeriods
	}
	if stepMinutes > 0 {
		cfg.StepMinutes = stepMinutes
	}
	cp := *p
	cp.sampler = propagation.NewSampler(p.init, cfg, p.logger)
	return &cp
}

// LoadHistory decodes every record of r.
func (p *Pipeline) LoadHistory(ctx context.Context, label string, r io.Reader) (*tle.History, error) {
	_, span := tracer.Start(ctx, "pipeline.LoadHistory")
	defer span.End()
	span.SetAttributes(attribute.String("orbitarc.label", label))

	h, err := tle.ParseHistory(r, label, p.logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("orbitarc.records", len(h.Records)),
		attribute.Int("orbitarc.lines_skipped", len(h.Skipped)),
	)
	return h, nil
}

// Trajectory samples the latest valid record of h.
func (p *Pipeline) Trajectory(ctx context.Context, h *tle.History) (*propagation.Trajectory, error) {
	rec, ok := h.Latest()
	if !ok {
		return nil, fmt.Errorf("%s: %w", h.Label, tle.ErrNoRecordsFound)
	}
	return p.sampler.Sample(ctx, h.Label, rec)
}

// Render samples each history and frames the trajectories together. Any
// object that cannot be sampled fails the whole document.
func (p *Pipeline) Render(ctx context.Context, histories ...*tle.History) (*render.Document, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Render")
	defer span.End()

	doc, err := p.render(ctx, histories)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.StringSlice("orbitarc.labels", doc.Scene.Labels()))
	return doc, nil
}

func (p *Pipeline) render(ctx context.Context, histories []*tle.History) (*render.Document, error) {
	if len(histories) == 0 {
		return nil, fmt.Errorf("no objects to render: %w", tle.ErrNoRecordsFound)
	}

	trajs := make([]*propagation.Trajectory, 0, len(histories))
	summaries := make([]render.ObjectSummary, 0, len(histories))
	for _, h := range histories {
		traj, err := p.Trajectory(ctx, h)
		if err != nil {
			return nil, err
		}
		trajs = append(trajs, traj)
		summaries = append(summaries, render.Summarize(traj))
	}

	scene, err := geometry.Combine(trajs...)
	if err != nil {
		return nil, fmt.Errorf("combining trajectories: %w", err)
	}
	scene.Earth = geometry.EarthWireframe(geometry.EarthRadiusKm, p.mesh)

	p.logger.Info("scene rendered",
		"objects", len(trajs),
		"half_extent_km", scene.Box.HalfExtent,
	)

	return &render.Document{
		GeneratedAt: p.now().UTC(),
		Objects:     summaries,
		Scene:       scene,
	}, nil
}

// Run reads every source and renders them as one document.
func (p *Pipeline) Run(ctx context.Context, sources ...Source) (*render.Document, error) {
	histories := make([]*tle.History, 0, len(sources))
	for _, src := range sources {
		h, err := p.LoadHistory(ctx, src.Label, src.Reader)
		if err != nil {
			return nil, err
		}
		histories = append(histories, h)
	}
	return p.Render(ctx, histories...)
}
