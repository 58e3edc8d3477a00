package propagation

import (
	"errors"
	"time"

	"github.com/star/orbitarc/internal/tle"
)

// Propagator status codes. Zero means success; any other value marks the
// sample as unusable.
const (
	CodeOK        = 0
	CodeNonFinite = 1 // position or velocity contained NaN/Inf
	CodeDecayed   = 6 // position below the minimum orbit radius
)

var (
	// ErrInvalidElements is returned when a propagation model cannot be
	// initialised from an element set.
	ErrInvalidElements = errors.New("invalid elements for propagation")

	// ErrPropagationStep marks a single grid point the model could not evaluate.
	ErrPropagationStep = errors.New("propagation step failed")

	// ErrEmptyTrajectory is returned when no sample of an arc is valid.
	ErrEmptyTrajectory = errors.New("trajectory has no valid samples")

	// ErrTooManySamples is returned when an arc's grid exceeds Config.MaxSamples.
	ErrTooManySamples = errors.New("sample grid too large")
)

// Result is the outcome of one model evaluation.
type Result struct {
	Code int
	// Time is the instant actually evaluated, when the model cannot resolve
	// the requested one exactly. Zero means the requested instant.
	Time     time.Time
	Position Vector3
	Velocity Vector3
}

// Model is an initialised propagator for a single element set. The
// perturbation theory behind it is opaque to the sampler.
type Model interface {
	// MeanMotion returns the model's mean motion in radians per minute.
	MeanMotion() float64
	// Propagate evaluates the state at epoch + offsetMinutes.
	Propagate(epoch time.Time, offsetMinutes float64) Result
}

// EpochModel is implemented by models that measure time from their own
// epoch rather than the decoded element epoch.
type EpochModel interface {
	Epoch() time.Time
}

// Initializer builds a Model from a line pair.
type Initializer interface {
	Init(pair tle.LinePair) (Model, error)
}

// InitFunc adapts a function to Initializer.
type InitFunc func(pair tle.LinePair) (Model, error)

// Init calls f.
func (f InitFunc) Init(pair tle.LinePair) (Model, error) {
	return f(pair)
}
