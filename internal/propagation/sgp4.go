package propagation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/star/orbitarc/internal/tle"
	"github.com/star/orbitarc/internal/transform"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Pure Go, explicit TEME output. Propagate() takes Satellite by value and
// whole calendar seconds, so SGP4 error codes are not visible to the caller:
// failures are detected from the output (NaN/Inf, radius below the surface)
// and instants are rounded to the nearest second.

// minutesPerDay converts rev/day to rad/min together with 2π.
const minutesPerDay = 1440.0

// SGP4 wraps the go-satellite library for a single element set.
type SGP4 struct {
	sat        satellite.Satellite
	meanMotion float64 // rad/min
	epoch      time.Time
}

// NewSGP4 initialises an SGP4 model from a line pair.
//
// The lines are validated before they reach the library, because
// go-satellite calls log.Fatal on malformed input.
func NewSGP4(pair tle.LinePair) (*SGP4, error) {
	line1 := strings.TrimSpace(pair.Line1)
	line2 := strings.TrimSpace(pair.Line2)
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}
	epoch, err := libraryEpoch(line1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}

	revPerDay, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil || revPerDay <= 0 {
		return nil, fmt.Errorf("%w: mean motion %q", ErrInvalidElements, line2[52:63])
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: sgp4 init code=%d %s", ErrInvalidElements, sat.Error, sat.ErrorStr)
	}
	return &SGP4{
		sat:        sat,
		meanMotion: revPerDay * 2 * math.Pi / minutesPerDay,
		epoch:      epoch,
	}, nil
}

// SGP4Initializer builds go-satellite backed models.
var SGP4Initializer Initializer = InitFunc(func(pair tle.LinePair) (Model, error) {
	return NewSGP4(pair)
})

// validateTLELines checks every field go-satellite's ParseTLE reads, with
// the same slicing and space stripping, so that none of them reaches its
// log.Fatal path.
func validateTLELines(line1, line2 string) error {
	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if !strings.HasPrefix(line1, "1 ") {
		return fmt.Errorf("line1 must start with \"1 \"")
	}
	if !strings.HasPrefix(line2, "2 ") {
		return fmt.Errorf("line2 must start with \"2 \"")
	}

	ints := []struct {
		name  string
		value string
	}{
		{"satellite number", strings.TrimSpace(line1[2:7])},
		{"epoch year", line1[18:20]},
	}
	for _, f := range ints {
		if _, err := strconv.ParseInt(f.value, 10, 0); err != nil {
			return fmt.Errorf("line1 %s %q", f.name, f.value)
		}
	}

	floats := []struct {
		name  string
		value string
	}{
		{"line1 epoch day", line1[20:32]},
		{"line1 ndot", stripSpaces(line1[33:43])},
		{"line1 nddot", stripSpaces(line1[44:45] + "." + line1[45:50] + "e" + line1[50:52])},
		{"line1 bstar", stripSpaces(line1[53:54] + "." + line1[54:59] + "e" + line1[59:61])},
		{"line2 inclination", stripSpaces(line2[8:16])},
		{"line2 raan", stripSpaces(line2[17:25])},
		{"line2 eccentricity", "." + line2[26:33]},
		{"line2 argument of perigee", stripSpaces(line2[34:42])},
		{"line2 mean anomaly", stripSpaces(line2[43:51])},
		{"line2 mean motion", stripSpaces(line2[52:63])},
	}
	for _, f := range floats {
		if _, err := strconv.ParseFloat(f.value, 64); err != nil {
			return fmt.Errorf("%s %q", f.name, f.value)
		}
	}
	return nil
}

// stripSpaces removes at most two spaces, as ParseTLE does.
func stripSpaces(s string) string {
	return strings.Replace(s, " ", "", 2)
}

// libraryEpoch returns the epoch go-satellite propagates from: two-digit
// years below 57 are 20yy, the rest 19yy, and the time of day is truncated
// to whole seconds. The day of year must fit the calendar, otherwise the
// library indexes past its month table.
func libraryEpoch(line1 string) (time.Time, error) {
	yy, _ := strconv.Atoi(line1[18:20])
	days, _ := strconv.ParseFloat(line1[20:32], 64)

	year := 1900 + yy
	if yy < 57 {
		year = 2000 + yy
	}
	daysInYear := 365.0
	if year%4 == 0 {
		daysInYear = 366
	}
	dayOfYear := math.Floor(days)
	if !(dayOfYear >= 0 && dayOfYear <= daysInYear) {
		return time.Time{}, fmt.Errorf("line1 epoch day %v out of range for %d", days, year)
	}

	hours := (days - dayOfYear) * 24
	hr := math.Floor(hours)
	minutes := (hours - hr) * 60
	mn := math.Floor(minutes)
	sec := int((minutes - mn) * 60)

	return time.Date(year, time.January, int(dayOfYear), int(hr), int(mn), sec, 0, time.UTC), nil
}

// MeanMotion returns the mean motion in rad/min.
func (p *SGP4) MeanMotion() float64 {
	return p.meanMotion
}

// Epoch returns the instant the library measures time since. It can differ
// from the decoded element epoch by the century rule and by under a second.
func (p *SGP4) Epoch() time.Time {
	return p.epoch
}

// Propagate evaluates the TEME state at epoch + offsetMinutes, rounded to
// the whole second the library can resolve. Result.Time is that instant.
func (p *SGP4) Propagate(epoch time.Time, offsetMinutes float64) Result {
	at := epoch.Add(minutesToDuration(offsetMinutes)).UTC().Round(time.Second)
	pos, vel := satellite.Propagate(p.sat, at.Year(), int(at.Month()), at.Day(), at.Hour(), at.Minute(), at.Second())

	res := Result{
		Time:     at,
		Position: Vector3{X: pos.X, Y: pos.Y, Z: pos.Z},
		Velocity: Vector3{X: vel.X, Y: vel.Y, Z: vel.Z},
	}
	switch {
	case !finite(pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z):
		res.Code = CodeNonFinite
	case !transform.PlausibleOrbit(pos.X, pos.Y, pos.Z):
		res.Code = CodeDecayed
	}
	return res
}

func minutesToDuration(m float64) time.Duration {
	return time.Duration(math.Round(m * float64(time.Minute)))
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
