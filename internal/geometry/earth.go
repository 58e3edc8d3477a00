package geometry

import "math"

// EarthRadiusKm is the WGS84 equatorial radius.
const EarthRadiusKm = 6378.137

// DefaultMeshResolution is the number of longitude and latitude divisions.
const DefaultMeshResolution = 60

// EarthMesh is a longitude/latitude wireframe. Meridians[i] and Parallels[j]
// are polylines of n+1 points each.
type EarthMesh struct {
	RadiusKm  float64        `json:"radius_km"`
	Meridians [][][3]float64 `json:"meridians"`
	Parallels [][][3]float64 `json:"parallels"`
}

// EarthWireframe builds a sphere mesh of radius radiusKm with n divisions.
// Non-positive arguments fall back to EarthRadiusKm and DefaultMeshResolution.
func EarthWireframe(radiusKm float64, n int) *EarthMesh {
	if radiusKm <= 0 {
		radiusKm = EarthRadiusKm
	}
	if n < 2 {
		n = DefaultMeshResolution
	}

	point := func(lon, lat float64) [3]float64 {
		return [3]float64{
			radiusKm * math.Cos(lat) * math.Cos(lon),
			radiusKm * math.Cos(lat) * math.Sin(lon),
			radiusKm * math.Sin(lat),
		}
	}

	mesh := &EarthMesh{
		RadiusKm:  radiusKm,
		Meridians: make([][][3]float64, n),
		Parallels: make([][][3]float64, 0, n-1),
	}
	for i := 0; i < n; i++ {
		lon := 2 * math.Pi * float64(i) / float64(n)
		line := make([][3]float64, n+1)
		for j := 0; j <= n; j++ {
			lat := -math.Pi/2 + math.Pi*float64(j)/float64(n)
			line[j] = point(lon, lat)
		}
		mesh.Meridians[i] = line
	}
	// Poles are points, not circles.
	for j := 1; j < n; j++ {
		lat := -math.Pi/2 + math.Pi*float64(j)/float64(n)
		line := make([][3]float64, n+1)
		for i := 0; i <= n; i++ {
			line[i] = point(2*math.Pi*float64(i)/float64(n), lat)
		}
		mesh.Parallels = append(mesh.Parallels, line)
	}
	return mesh
}
