package propagation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/orbitarc/internal/tle"
)

func TestGridInclusiveEndpoint(t *testing.T) {
	grid := Grid(10, 0.5)
	require.Len(t, grid, 21)
	assert.Equal(t, 0.0, grid[0])
	assert.Equal(t, 10.0, grid[20])
	for i := 1; i < len(grid); i++ {
		assert.InDelta(t, 0.5, grid[i]-grid[i-1], 1e-12)
	}
}

func TestGridCases(t *testing.T) {
	tests := []struct {
		name       string
		span, step float64
		wantLen    int
	}{
		{"span not a multiple of step", 10.2, 0.5, 21},
		{"zero span", 0, 0.5, 1},
		{"float multiple", 0.3, 0.1, 4},
		{"negative span", -1, 0.5, 0},
		{"zero step", 10, 0, 0},
		{"infinite span", math.Inf(1), 0.5, 0},
		{"NaN step", 10, math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := Grid(tt.span, tt.step)
			require.Len(t, grid, tt.wantLen)
			if tt.wantLen > 0 {
				assert.LessOrEqual(t, grid[len(grid)-1], tt.span+1e-9)
				assert.Greater(t, grid[len(grid)-1]+tt.step, tt.span)
			}
		})
	}
}

func TestPeriodMinutes(t *testing.T) {
	p, err := PeriodMinutes(0.0011)
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Pi/0.0011, p, 1e-9)

	for _, n := range []float64{0, -0.001, math.NaN(), math.Inf(1)} {
		_, err := PeriodMinutes(n)
		assert.ErrorIs(t, err, ErrInvalidElements, "n=%v", n)
	}
}

func TestSamplerArcSpansTwoPeriods(t *testing.T) {
	model := &circularModel{n: 0.0011}
	s := NewSampler(fixedInit(model), Config{ArcPeriods: 2, StepMinutes: 0.5}, testLogger())

	rec := mustRecord(t, glonassLine1, glonassLine2)
	traj, err := s.Sample(context.Background(), "norad-37869", rec)
	require.NoError(t, err)

	period := 2 * math.Pi / 0.0011
	assert.InDelta(t, period, traj.PeriodMinutes, 1e-9)

	last := traj.Samples[len(traj.Samples)-1].TimeOffsetMinutes
	assert.LessOrEqual(t, last, 2*period)
	assert.InDelta(t, 2*period, last, 0.5)

	assert.Equal(t, "norad-37869", traj.Label)
	assert.Equal(t, rec.Elements, traj.Source)
	assert.Equal(t, FrameTEME, traj.Frame)
	assert.Equal(t, int64(len(traj.Samples)), model.calls.Load())
	assert.Equal(t, rec.Elements.Epoch, traj.Samples[0].Time)
}

// The period comes from the model, not from the rev/day value on line 2.
func TestSamplerUsesModelMeanMotion(t *testing.T) {
	model := &circularModel{n: 0.01}
	s := NewSampler(fixedInit(model), Config{ArcPeriods: 1, StepMinutes: 1}, testLogger())

	traj, err := s.Sample(context.Background(), "x", mustRecord(t, glonassLine1, glonassLine2))
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Pi/0.01, traj.PeriodMinutes, 1e-9)
	assert.Len(t, traj.Samples, len(Grid(2*math.Pi/0.01, 1)))
}

func TestSamplerKeepsGoingAfterFailedSteps(t *testing.T) {
	model := &circularModel{
		n: 0.05,
		fail: func(off float64) bool {
			return int(off)%3 == 0
		},
	}
	s := NewSampler(fixedInit(model), Config{ArcPeriods: 1, StepMinutes: 1}, testLogger())

	traj, err := s.Sample(context.Background(), "flaky", mustRecord(t, issLine1, issLine2))
	require.NoError(t, err)

	grid := Grid(traj.PeriodMinutes, 1)
	require.Len(t, traj.Samples, len(grid))

	var wantFailed int
	for i, smp := range traj.Samples {
		assert.Equal(t, grid[i], smp.TimeOffsetMinutes)
		if int(grid[i])%3 == 0 {
			wantFailed++
			assert.False(t, smp.Valid)
			assert.Equal(t, CodeDecayed, smp.Code)
		} else {
			assert.True(t, smp.Valid)
		}
	}
	assert.Equal(t, wantFailed, traj.FailedCount())
	assert.Len(t, traj.ValidSamples(), len(grid)-wantFailed)
}

func TestSamplerEmptyTrajectory(t *testing.T) {
	model := &circularModel{n: 0.05, fail: func(float64) bool { return true }}
	s := NewSampler(fixedInit(model), Config{ArcPeriods: 1, StepMinutes: 1}, testLogger())

	traj, err := s.Sample(context.Background(), "dead", mustRecord(t, issLine1, issLine2))
	assert.ErrorIs(t, err, ErrEmptyTrajectory)
	assert.Nil(t, traj)
}

func TestSamplerInitFailure(t *testing.T) {
	boom := errors.New("boom")
	init := InitFunc(func(tle.LinePair) (Model, error) {
		return nil, boom
	})
	s := NewSampler(init, DefaultConfig(), testLogger())

	_, err := s.Sample(context.Background(), "x", mustRecord(t, issLine1, issLine2))
	assert.ErrorIs(t, err, boom)
}

func TestSamplerZeroMeanMotion(t *testing.T) {
	s := NewSampler(fixedInit(&circularModel{n: 0}), DefaultConfig(), testLogger())
	_, err := s.Sample(context.Background(), "x", mustRecord(t, issLine1, issLine2))
	assert.ErrorIs(t, err, ErrInvalidElements)
}

func TestSamplerRejectsMalformedRecord(t *testing.T) {
	s := NewSampler(fixedInit(&circularModel{n: 0.05}), DefaultConfig(), testLogger())
	rec := tle.Record{Err: tle.ErrMalformedRecord}
	_, err := s.Sample(context.Background(), "x", rec)
	assert.ErrorIs(t, err, tle.ErrMalformedRecord)
}

// Parallel sampling must produce the same ordered samples as a single worker.
func TestSamplerParallelMatchesSequential(t *testing.T) {
	rec := mustRecord(t, issLine1, issLine2)
	cfg := Config{ArcPeriods: 2, StepMinutes: 0.5}

	seq, err := NewSampler(fixedInit(&circularModel{n: 0.06}), cfg, testLogger()).
		Sample(context.Background(), "seq", rec)
	require.NoError(t, err)

	cfg.Workers = 8
	par, err := NewSampler(fixedInit(&circularModel{n: 0.06, delay: 10 * time.Microsecond}), cfg, testLogger()).
		Sample(context.Background(), "par", rec)
	require.NoError(t, err)

	require.Equal(t, len(seq.Samples), len(par.Samples))
	for i := range seq.Samples {
		assert.Equal(t, seq.Samples[i], par.Samples[i])
		if i > 0 {
			assert.Greater(t, par.Samples[i].TimeOffsetMinutes, par.Samples[i-1].TimeOffsetMinutes)
		}
	}
}

func TestSamplerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		s := NewSampler(fixedInit(&circularModel{n: 0.06}), Config{Workers: workers}, testLogger())
		_, err := s.Sample(ctx, "x", mustRecord(t, issLine1, issLine2))
		assert.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}
}

func TestSamplerECEFFramePreservesRadius(t *testing.T) {
	rec := mustRecord(t, issLine1, issLine2)
	s := NewSampler(fixedInit(&circularModel{n: 0.06}), Config{ArcPeriods: 1, StepMinutes: 5, Frame: FrameECEF}, testLogger())

	traj, err := s.Sample(context.Background(), "x", rec)
	require.NoError(t, err)
	assert.Equal(t, FrameECEF, traj.Frame)

	for _, smp := range traj.Samples {
		r := math.Sqrt(smp.Position.X*smp.Position.X + smp.Position.Y*smp.Position.Y)
		assert.InDelta(t, 7000, r, 1e-6)
	}
}

func TestNewSamplerDefaults(t *testing.T) {
	s := NewSampler(fixedInit(&circularModel{n: 1}), Config{}, testLogger())
	assert.Equal(t, DefaultConfig(), s.Config())

	_, ok := ParseFrame("ecef")
	assert.True(t, ok)
	_, ok = ParseFrame("j2000")
	assert.False(t, ok)
}

func TestGridSize(t *testing.T) {
	assert.Equal(t, 21.0, GridSize(10, 0.5))
	assert.Zero(t, GridSize(-1, 0.5))
	assert.Greater(t, GridSize(2*2*math.Pi/1e-12, 0.5), 1e12)
}

// A near-zero mean motion is rejected before the grid is allocated.
func TestSamplerRejectsOversizedGrid(t *testing.T) {
	model := &circularModel{n: 1e-12}
	s := NewSampler(fixedInit(model), Config{ArcPeriods: 2, StepMinutes: 0.5}, testLogger())

	_, err := s.Sample(context.Background(), "slow", mustRecord(t, glonassLine1, glonassLine2))
	require.ErrorIs(t, err, ErrTooManySamples)
	assert.Contains(t, err.Error(), "slow")
	assert.Zero(t, model.calls.Load())
}

func TestSamplerMaxSamplesBoundary(t *testing.T) {
	// One period of 100 minutes at a 1 minute step is 101 points.
	n := 2 * math.Pi / 100
	rec := mustRecord(t, glonassLine1, glonassLine2)

	s := NewSampler(fixedInit(&circularModel{n: n}), Config{ArcPeriods: 1, StepMinutes: 1, MaxSamples: 101}, testLogger())
	traj, err := s.Sample(context.Background(), "x", rec)
	require.NoError(t, err)
	assert.Len(t, traj.Samples, 101)

	s = NewSampler(fixedInit(&circularModel{n: n}), Config{ArcPeriods: 1, StepMinutes: 1, MaxSamples: 100}, testLogger())
	_, err = s.Sample(context.Background(), "x", rec)
	assert.ErrorIs(t, err, ErrTooManySamples)
}
