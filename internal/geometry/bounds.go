// Package geometry frames sampled trajectories for rendering: a cubic
// bounding volume shared by every object in a scene, the merged labelled
// series and a reference Earth mesh.
package geometry

import (
	"errors"
	"math"

	"github.com/star/orbitarc/internal/propagation"
)

// ErrNoSamples is returned when there is no valid sample to bound.
var ErrNoSamples = errors.New("no valid samples to bound")

// BoundingBox is a cube: every axis spans [Center-HalfExtent, Center+HalfExtent].
type BoundingBox struct {
	Center     propagation.Vector3 `json:"center"`
	HalfExtent float64             `json:"half_extent"`
}

// Min returns the low corner of the cube.
func (b BoundingBox) Min() propagation.Vector3 {
	return propagation.Vector3{X: b.Center.X - b.HalfExtent, Y: b.Center.Y - b.HalfExtent, Z: b.Center.Z - b.HalfExtent}
}

// Max returns the high corner of the cube.
func (b BoundingBox) Max() propagation.Vector3 {
	return propagation.Vector3{X: b.Center.X + b.HalfExtent, Y: b.Center.Y + b.HalfExtent, Z: b.Center.Z + b.HalfExtent}
}

// Contains reports whether p lies inside the cube, inclusive of its faces.
func (b BoundingBox) Contains(p propagation.Vector3) bool {
	lo, hi := b.Min(), b.Max()
	return p.X >= lo.X && p.X <= hi.X &&
		p.Y >= lo.Y && p.Y <= hi.Y &&
		p.Z >= lo.Z && p.Z <= hi.Z
}

// extent accumulates per-axis min/max.
type extent struct {
	min, max propagation.Vector3
	n        int
}

func newExtent() extent {
	inf := math.Inf(1)
	return extent{
		min: propagation.Vector3{X: inf, Y: inf, Z: inf},
		max: propagation.Vector3{X: -inf, Y: -inf, Z: -inf},
	}
}

func (e *extent) add(p propagation.Vector3) {
	e.min.X = math.Min(e.min.X, p.X)
	e.min.Y = math.Min(e.min.Y, p.Y)
	e.min.Z = math.Min(e.min.Z, p.Z)
	e.max.X = math.Max(e.max.X, p.X)
	e.max.Y = math.Max(e.max.Y, p.Y)
	e.max.Z = math.Max(e.max.Z, p.Z)
	e.n++
}

func (e extent) box() BoundingBox {
	rx := e.max.X - e.min.X
	ry := e.max.Y - e.min.Y
	rz := e.max.Z - e.min.Z
	return BoundingBox{
		Center: propagation.Vector3{
			X: (e.min.X + e.max.X) / 2,
			Y: (e.min.Y + e.max.Y) / 2,
			Z: (e.min.Z + e.max.Z) / 2,
		},
		HalfExtent: math.Max(rx, math.Max(ry, rz)) / 2,
	}
}

// Bound computes the equal-aspect box around every valid sample of trajs.
// Invalid samples are ignored. It returns ErrNoSamples when nothing is left.
func Bound(trajs ...*propagation.Trajectory) (BoundingBox, error) {
	e := newExtent()
	for _, t := range trajs {
		if t == nil {
			continue
		}
		for _, s := range t.Samples {
			if s.Valid {
				e.add(s.Position)
			}
		}
	}
	if e.n == 0 {
		return BoundingBox{}, ErrNoSamples
	}
	return e.box(), nil
}
