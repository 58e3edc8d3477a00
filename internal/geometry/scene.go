package geometry

import (
	"fmt"

	"github.com/star/orbitarc/internal/propagation"
)

// Series is one object's renderable coordinates.
type Series struct {
	Label  string                `json:"label"`
	Frame  propagation.Frame     `json:"frame"`
	Points []propagation.Vector3 `json:"points"`
}

// Scene is the merged geometry handed to a rendering sink.
type Scene struct {
	Series []Series    `json:"series"`
	Box    BoundingBox `json:"box"`
	Earth  *EarthMesh  `json:"earth,omitempty"`
}

// Combine merges trajectories into one scene framed by a single shared box.
// Series keep input order and their labels; only valid samples become points.
func Combine(trajs ...*propagation.Trajectory) (*Scene, error) {
	if len(trajs) == 0 {
		return nil, ErrNoSamples
	}

	seen := make(map[string]struct{}, len(trajs))
	series := make([]Series, 0, len(trajs))
	for _, t := range trajs {
		if t == nil {
			return nil, fmt.Errorf("nil trajectory: %w", ErrNoSamples)
		}
		if _, dup := seen[t.Label]; dup {
			return nil, fmt.Errorf("duplicate label %q", t.Label)
		}
		seen[t.Label] = struct{}{}

		valid := t.ValidSamples()
		points := make([]propagation.Vector3, len(valid))
		for i, s := range valid {
			points[i] = s.Position
		}
		series = append(series, Series{Label: t.Label, Frame: t.Frame, Points: points})
	}

	box, err := Bound(trajs...)
	if err != nil {
		return nil, err
	}
	return &Scene{Series: series, Box: box}, nil
}

// Labels returns the series labels in scene order.
func (s *Scene) Labels() []string {
	out := make([]string, len(s.Series))
	for i, ser := range s.Series {
		out[i] = ser.Label
	}
	return out
}
