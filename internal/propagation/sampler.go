package propagation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/star/orbitarc/internal/metrics"
	"github.com/star/orbitarc/internal/tle"
	"github.com/star/orbitarc/internal/transform"
)

var tracer = otel.Tracer("github.com/star/orbitarc/internal/propagation")

// gridEpsilon absorbs float error when the span is an exact multiple of the step.
const gridEpsilon = 1e-9

// Sampler turns one element set into a time-stepped Trajectory.
type Sampler struct {
	init   Initializer
	pool   *WorkerPool
	config Config
	logger *slog.Logger
}

// NewSampler creates a sampler backed by the given propagation capability.
func NewSampler(init Initializer, config Config, logger *slog.Logger) *Sampler {
	def := DefaultConfig()
	if config.ArcPeriods <= 0 {
		config.ArcPeriods = def.ArcPeriods
	}
	if config.StepMinutes <= 0 {
		config.StepMinutes = def.StepMinutes
	}
	if config.Frame == "" {
		config.Frame = def.Frame
	}
	if config.Workers < 1 {
		config.Workers = def.Workers
	}
	if config.MaxSamples < 1 {
		config.MaxSamples = def.MaxSamples
	}
	return &Sampler{
		init:   init,
		pool:   NewWorkerPool(config.Workers, logger),
		config: config,
		logger: logger,
	}
}

// Config returns the effective sampling configuration.
func (s *Sampler) Config() Config {
	return s.config
}

// PeriodMinutes returns the orbital period 2π/n for a mean motion n in rad/min.
func PeriodMinutes(meanMotionRadPerMin float64) (float64, error) {
	if !(meanMotionRadPerMin > 0) || math.IsInf(meanMotionRadPerMin, 0) {
		return 0, fmt.Errorf("%w: mean motion %v rad/min", ErrInvalidElements, meanMotionRadPerMin)
	}
	return 2 * math.Pi / meanMotionRadPerMin, nil
}

// GridSize returns the number of points Grid would return, as a float so
// that oversized grids can be rejected before allocation.
func GridSize(spanMinutes, stepMinutes float64) float64 {
	if !(spanMinutes >= 0) || !(stepMinutes > 0) {
		return 0
	}
	return math.Floor(spanMinutes/stepMinutes+gridEpsilon) + 1
}

// Grid returns offsets 0, step, 2·step, ... up to and including span.
// Callers bound the size with GridSize first.
func Grid(spanMinutes, stepMinutes float64) []float64 {
	n := GridSize(spanMinutes, stepMinutes)
	if n == 0 || math.IsInf(n, 0) {
		return nil
	}
	offsets := make([]float64, int(n))
	for i := range offsets {
		offsets[i] = float64(i) * stepMinutes
	}
	return offsets
}

// Sample propagates rec over the configured number of periods from the
// model's epoch, which is the element epoch unless the model is an EpochModel.
// Failed grid points stay in the trajectory with Valid=false; if none
// succeed, ErrEmptyTrajectory is returned.
func (s *Sampler) Sample(ctx context.Context, label string, rec tle.Record) (*Trajectory, error) {
	ctx, span := tracer.Start(ctx, "propagation.Sample")
	defer span.End()
	span.SetAttributes(attribute.String("orbitarc.label", label))

	traj, err := s.sample(ctx, label, rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("orbitarc.samples", len(traj.Samples)),
		attribute.Int("orbitarc.samples_failed", traj.FailedCount()),
		attribute.Float64("orbitarc.period_minutes", traj.PeriodMinutes),
	)
	return traj, nil
}

func (s *Sampler) sample(ctx context.Context, label string, rec tle.Record) (*Trajectory, error) {
	if rec.Err != nil {
		return nil, fmt.Errorf("%s: %w", label, rec.Err)
	}

	model, err := s.init.Init(rec.Pair)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	period, err := PeriodMinutes(model.MeanMotion())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	spanMinutes := s.config.ArcPeriods * period
	if n := GridSize(spanMinutes, s.config.StepMinutes); n > float64(s.config.MaxSamples) {
		return nil, fmt.Errorf("%s: %w: %.0f points over %.1f min exceeds %d",
			label, ErrTooManySamples, n, spanMinutes, s.config.MaxSamples)
	}
	offsets := Grid(spanMinutes, s.config.StepMinutes)

	epoch := rec.Elements.Epoch
	if em, ok := model.(EpochModel); ok {
		epoch = em.Epoch()
	}

	start := time.Now()
	samples, err := s.pool.PropagateGrid(ctx, model, epoch, offsets)
	if err != nil {
		return nil, fmt.Errorf("%s: sampling arc: %w", label, err)
	}
	duration := time.Since(start)

	var failed int
	for i := range samples {
		smp := &samples[i]
		if !smp.Valid {
			failed++
			s.logger.Warn("propagation step failed",
				"event", "propagation_step_failed",
				"label", label,
				"offset_minutes", smp.TimeOffsetMinutes,
				"code", smp.Code,
				"error", ErrPropagationStep,
			)
			continue
		}
		if s.config.Frame == FrameECEF {
			toECEF(smp)
		}
	}

	metrics.RecordSamples(len(samples)-failed, failed)
	metrics.ObserveTrajectoryDuration(duration)

	if failed == len(samples) {
		return nil, fmt.Errorf("%s: %w: all %d samples failed", label, ErrEmptyTrajectory, len(samples))
	}

	s.logger.Debug("trajectory sampled",
		"label", label,
		"epoch", epoch.Format(time.RFC3339Nano),
		"period_minutes", period,
		"span_minutes", spanMinutes,
		"samples", len(samples),
		"failed", failed,
		"workers", s.pool.Workers(),
		"duration_ms", duration.Milliseconds(),
	)

	return &Trajectory{
		Label:         label,
		Samples:       samples,
		Source:        rec.Elements,
		PeriodMinutes: period,
		Frame:         s.config.Frame,
	}, nil
}

// toECEF rotates a TEME sample in place.
func toECEF(smp *StateSample) {
	ecef := transform.TEMEToECEF(transform.State{
		X: smp.Position.X, Y: smp.Position.Y, Z: smp.Position.Z,
		VX: smp.Velocity.X, VY: smp.Velocity.Y, VZ: smp.Velocity.Z,
	}, smp.Time)
	smp.Position = Vector3{X: ecef.X, Y: ecef.Y, Z: ecef.Z}
	smp.Velocity = Vector3{X: ecef.VX, Y: ecef.VY, Z: ecef.VZ}
}
