package geometry

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/orbitarc/internal/propagation"
)

func traj(label string, pts ...propagation.Vector3) *propagation.Trajectory {
	t := &propagation.Trajectory{Label: label, Frame: propagation.FrameTEME}
	for i, p := range pts {
		t.Samples = append(t.Samples, propagation.StateSample{
			TimeOffsetMinutes: float64(i) * 0.5,
			Position:          p,
			Valid:             true,
		})
	}
	return t
}

func ellipse(label string, a, b, tilt float64, n int) *propagation.Trajectory {
	pts := make([]propagation.Vector3, n)
	for i := range pts {
		th := 2 * math.Pi * float64(i) / float64(n)
		x, y := a*math.Cos(th), b*math.Sin(th)
		pts[i] = propagation.Vector3{X: x, Y: y * math.Cos(tilt), Z: y * math.Sin(tilt)}
	}
	return traj(label, pts...)
}

// within allows for rounding in center±halfExtent.
func within(b BoundingBox, p propagation.Vector3, tol float64) bool {
	return math.Abs(p.X-b.Center.X) <= b.HalfExtent+tol &&
		math.Abs(p.Y-b.Center.Y) <= b.HalfExtent+tol &&
		math.Abs(p.Z-b.Center.Z) <= b.HalfExtent+tol
}

func TestBoundCube(t *testing.T) {
	tr := traj("a",
		propagation.Vector3{X: -10, Y: 0, Z: 5},
		propagation.Vector3{X: 30, Y: 4, Z: 7},
		propagation.Vector3{X: 0, Y: -2, Z: 6},
	)
	box, err := Bound(tr)
	require.NoError(t, err)

	// X range 40 dominates; Y range 6, Z range 2.
	assert.Equal(t, 20.0, box.HalfExtent)
	assert.Equal(t, propagation.Vector3{X: 10, Y: 1, Z: 6}, box.Center)
}

func TestBoundIgnoresInvalidSamples(t *testing.T) {
	tr := traj("a", propagation.Vector3{X: 1}, propagation.Vector3{X: 3})
	tr.Samples = append(tr.Samples, propagation.StateSample{
		Position: propagation.Vector3{X: 1e9},
		Code:     propagation.CodeDecayed,
	})

	box, err := Bound(tr)
	require.NoError(t, err)
	assert.Equal(t, 1.0, box.HalfExtent)
	assert.Equal(t, 2.0, box.Center.X)
}

func TestBoundNoSamples(t *testing.T) {
	_, err := Bound()
	assert.ErrorIs(t, err, ErrNoSamples)

	bad := &propagation.Trajectory{Samples: []propagation.StateSample{{Valid: false}}}
	_, err = Bound(bad, nil)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestBoundSinglePoint(t *testing.T) {
	box, err := Bound(traj("p", propagation.Vector3{X: 7000, Y: 1, Z: -1}))
	require.NoError(t, err)
	assert.Zero(t, box.HalfExtent)
	assert.True(t, box.Contains(propagation.Vector3{X: 7000, Y: 1, Z: -1}))
}

func TestBoundContainsAllSamples(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		pts := make([]propagation.Vector3, 1+rng.Intn(40))
		for i := range pts {
			pts[i] = propagation.Vector3{
				X: rng.NormFloat64() * 7000,
				Y: rng.NormFloat64() * 300,
				Z: rng.NormFloat64()*20000 + 500,
			}
		}
		tr := traj("r", pts...)
		box, err := Bound(tr)
		require.NoError(t, err)

		var maxRange float64
		for _, axis := range []func(propagation.Vector3) float64{
			func(v propagation.Vector3) float64 { return v.X },
			func(v propagation.Vector3) float64 { return v.Y },
			func(v propagation.Vector3) float64 { return v.Z },
		} {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, p := range pts {
				lo = math.Min(lo, axis(p))
				hi = math.Max(hi, axis(p))
			}
			maxRange = math.Max(maxRange, hi-lo)
		}
		assert.InDelta(t, maxRange/2, box.HalfExtent, 1e-9)
		for _, p := range pts {
			assert.True(t, within(box, p, 1e-6), "trial %d: %+v outside %+v", trial, p, box)
		}
	}
}

func TestCombineBoxCoversEachTrajectory(t *testing.T) {
	leo := ellipse("leo", 6800, 6790, 0.9, 180)
	meo := ellipse("meo", 25500, 25480, 1.13, 360)

	scene, err := Combine(leo, meo)
	require.NoError(t, err)
	assert.Equal(t, []string{"leo", "meo"}, scene.Labels())
	assert.Len(t, scene.Series[0].Points, 180)
	assert.Len(t, scene.Series[1].Points, 360)

	for _, tr := range []*propagation.Trajectory{leo, meo} {
		own, err := Bound(tr)
		require.NoError(t, err)
		lo, hi := own.Min(), own.Max()
		clo, chi := scene.Box.Min(), scene.Box.Max()
		assert.LessOrEqual(t, clo.X, lo.X+1e-9)
		assert.LessOrEqual(t, clo.Y, lo.Y+1e-9)
		assert.LessOrEqual(t, clo.Z, lo.Z+1e-9)
		assert.GreaterOrEqual(t, chi.X, hi.X-1e-9)
		assert.GreaterOrEqual(t, chi.Y, hi.Y-1e-9)
		assert.GreaterOrEqual(t, chi.Z, hi.Z-1e-9)
		assert.GreaterOrEqual(t, scene.Box.HalfExtent, own.HalfExtent)
	}
}

func TestCombineKeepsOnlyValidPoints(t *testing.T) {
	tr := traj("a", propagation.Vector3{X: 1}, propagation.Vector3{X: 2})
	tr.Samples[0].Valid = false

	scene, err := Combine(tr)
	require.NoError(t, err)
	assert.Equal(t, []propagation.Vector3{{X: 2}}, scene.Series[0].Points)
	assert.Equal(t, propagation.FrameTEME, scene.Series[0].Frame)
}

func TestCombineErrors(t *testing.T) {
	_, err := Combine()
	assert.ErrorIs(t, err, ErrNoSamples)

	_, err = Combine(traj("a", propagation.Vector3{}), traj("a", propagation.Vector3{X: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate label")

	_, err = Combine(traj("a", propagation.Vector3{}), nil)
	assert.True(t, errors.Is(err, ErrNoSamples))
}

func TestEarthWireframe(t *testing.T) {
	mesh := EarthWireframe(0, 0)
	assert.Equal(t, EarthRadiusKm, mesh.RadiusKm)
	require.Len(t, mesh.Meridians, DefaultMeshResolution)
	require.Len(t, mesh.Parallels, DefaultMeshResolution-1)

	for _, line := range append(mesh.Meridians, mesh.Parallels...) {
		require.Len(t, line, DefaultMeshResolution+1)
		for _, p := range line {
			r := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
			assert.InDelta(t, EarthRadiusKm, r, 1e-6)
		}
	}

	small := EarthWireframe(1, 4)
	assert.Len(t, small.Meridians, 4)
	assert.Len(t, small.Parallels, 3)
	// Meridians run pole to pole.
	assert.InDelta(t, -1, small.Meridians[0][0][2], 1e-12)
	assert.InDelta(t, 1, small.Meridians[0][4][2], 1e-12)
}
