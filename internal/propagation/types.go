package propagation

import (
	"time"

	"github.com/star/orbitarc/internal/tle"
)

// Vector3 is a Cartesian vector. Positions are in km, velocities in km/s.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Frame names the reference frame sample positions are expressed in.
type Frame string

const (
	// FrameTEME is the propagator's native Earth-centred inertial-like frame.
	FrameTEME Frame = "teme"
	// FrameECEF is the Earth-fixed frame obtained by a GMST rotation.
	FrameECEF Frame = "ecef"
)

// ParseFrame validates a frame name.
func ParseFrame(s string) (Frame, bool) {
	switch Frame(s) {
	case FrameTEME, FrameECEF:
		return Frame(s), true
	}
	return "", false
}

// StateSample is one propagated grid point.
type StateSample struct {
	TimeOffsetMinutes float64
	// Time is the instant the position was computed at. For SGP4 this is
	// the model epoch plus the offset, rounded to whole seconds.
	Time     time.Time
	Position Vector3
	Velocity Vector3
	// Valid is false when the propagator reported Code != 0 for this point.
	Valid bool
	Code  int
}

// Trajectory is the sampled arc of one object. It is not modified after
// the sampler returns it.
type Trajectory struct {
	Label         string
	Samples       []StateSample
	Source        tle.ElementSet
	PeriodMinutes float64
	Frame         Frame
}

// ValidSamples returns the samples usable for geometry, in time order.
func (t *Trajectory) ValidSamples() []StateSample {
	out := make([]StateSample, 0, len(t.Samples))
	for _, s := range t.Samples {
		if s.Valid {
			out = append(out, s)
		}
	}
	return out
}

// FailedCount returns the number of invalid samples.
func (t *Trajectory) FailedCount() int {
	var n int
	for _, s := range t.Samples {
		if !s.Valid {
			n++
		}
	}
	return n
}

// Config holds sampling configuration loaded from environment variables and flags.
type Config struct {
	ArcPeriods  float64 // Arc length in orbital periods (default: 2)
	StepMinutes float64 // Grid step (default: 0.5)
	Workers     int     // Parallel propagation workers (default: 1)
	Frame       Frame   // Output frame (default: teme)
	MaxSamples  int     // Grid points allowed per arc (default: 200000)
}

// DefaultConfig returns the default sampling configuration.
func DefaultConfig() Config {
	return Config{
		ArcPeriods:  2,
		StepMinutes: 0.5,
		Workers:     1,
		Frame:       FrameTEME,
		MaxSamples:  200_000,
	}
}
