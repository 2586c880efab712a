// Package geo snaps raw coordinates onto a fixed two-decimal grid (~1.1 km)
// so that nearby queries collide on one cache key. The precision loss is
// deliberate: it trades position accuracy for cache hit rate.
package geo

import (
	"math"
	"strconv"
)

// GridPrecision is the number of decimal places kept by RoundCoord.
const GridPrecision = 2

// RoundCoord rounds half away from zero to GridPrecision decimals.
func RoundCoord(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// RoundCoords rounds a latitude/longitude pair onto the grid.
func RoundCoords(lat, lon float64) (float64, float64) {
	return RoundCoord(lat), RoundCoord(lon)
}

// CoordsKey derives the canonical cache key for a coordinate pair. The two
// rounded components are rendered in their shortest decimal form, so keys are
// stable and collision-free across equivalent inputs ("45.5,-73.6").
func CoordsKey(lat, lon float64) string {
	rlat, rlon := RoundCoords(lat, lon)
	return FormatCoord(rlat) + "," + FormatCoord(rlon)
}

// FormatCoord renders a coordinate in its shortest decimal form.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
