package tle

import (
	"io"
	"log/slog"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Kosmos 2475 (GLONASS, NORAD 37869).
const (
	glonassLine1 = "1 37869U 11064A   25143.57154119 -.00000044  00000-0  00000-0 0  9998"
	glonassLine2 = "2 37869  64.8533 130.6712 0011562 227.1187 132.8441  2.13102839105673"
)

// ISS (NORAD 25544).
const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)
