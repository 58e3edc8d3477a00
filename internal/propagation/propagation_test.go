package propagation

import (
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/star/orbitarc/internal/tle"
)

// ISS TLE, epoch 2024-04-09 12:00 UTC.
const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

// Kosmos 2475 (GLONASS), epoch 2025 day 143.
const (
	glonassLine1 = "1 37869U 11064A   25143.57154119 -.00000044  00000-0  00000-0 0  9998"
	glonassLine2 = "2 37869  64.8533 130.6712 0011562 227.1187 132.8441  2.13102839105673"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func mustRecord(t testing.TB, line1, line2 string) tle.Record {
	t.Helper()
	pair := tle.LinePair{Line1: line1, Line2: line2, LineNumber: 1}
	es, err := tle.Decode(pair)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return tle.Record{Pair: pair, Elements: es}
}

// circularModel is a test double moving on a circle of radius 7000 km in
// the XY plane at mean motion n, with an optional failure predicate.
type circularModel struct {
	n     float64
	fail  func(offset float64) bool
	calls atomic.Int64
	delay time.Duration
}

func (m *circularModel) MeanMotion() float64 { return m.n }

func (m *circularModel) Propagate(epoch time.Time, offset float64) Result {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.fail != nil && m.fail(offset) {
		return Result{Code: CodeDecayed}
	}
	angle := m.n * offset
	return Result{
		Position: Vector3{X: 7000 * math.Cos(angle), Y: 7000 * math.Sin(angle), Z: 0.001 * offset},
		Velocity: Vector3{X: -7000 * m.n * math.Sin(angle), Y: 7000 * m.n * math.Cos(angle)},
	}
}

func fixedInit(m Model) Initializer {
	return InitFunc(func(tle.LinePair) (Model, error) { return m, nil })
}
