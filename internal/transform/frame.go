// Package transform rotates propagated states between reference frames.
//
// Propagated states come out in TEME (True Equator Mean Equinox), which is
// treated as an Earth-centred inertial frame for plotting. TEMEToECEF turns a
// state into the Earth-fixed frame with a GMST-only rotation (TEME → PEF ≈
// ECEF); polar motion and the equation of the equinoxes are ignored, which
// costs at most ~50 m.
package transform

import (
	"math"
	"time"
)

// State is a position (km) and velocity (km/s).
type State struct {
	X, Y, Z    float64
	VX, VY, VZ float64
}

// TEMEToECEF rotates a TEME state into ECEF at the given UTC instant.
func TEMEToECEF(teme State, t time.Time) State {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST rotates using a precomputed GMST angle (radians).
//
//	r_ECEF = R3(θ) r_TEME
//	v_ECEF = R3(θ) v_TEME - ω × r_ECEF
func TEMEToECEFWithGMST(teme State, gmst float64) State {
	cosG, sinG := math.Cos(gmst), math.Sin(gmst)

	x := teme.X*cosG + teme.Y*sinG
	y := -teme.X*sinG + teme.Y*cosG

	vx := teme.VX*cosG + teme.VY*sinG
	vy := -teme.VX*sinG + teme.VY*cosG

	return State{
		X:  x,
		Y:  y,
		Z:  teme.Z,
		VX: vx + OmegaEarth*y,
		VY: vy - OmegaEarth*x,
		VZ: teme.VZ,
	}
}

// MinOrbitRadiusKm is the smallest geocentric radius accepted as a live orbit.
const MinOrbitRadiusKm = 6200.0

// PlausibleOrbit reports whether a position (km) is finite and above the
// Earth's surface. No upper bound is applied: high elliptical orbits reach
// far beyond GEO.
func PlausibleOrbit(x, y, z float64) bool {
	for _, v := range [3]float64{x, y, z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return math.Sqrt(x*x+y*y+z*z) >= MinOrbitRadiusKm
}
