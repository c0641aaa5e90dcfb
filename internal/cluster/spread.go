package cluster

import (
	"math"

	"propertymap/server/internal/geo"
)

// DefaultSpreadRadius is the distance in pixels between an expanded cluster
// marker and its member markers.
const DefaultSpreadRadius = 40

// markerSpacing is the minimum arc length in pixels between two neighbouring
// member markers of an expanded cluster.
const markerSpacing = 28

// Spread lays out count member markers on a circle around center, starting
// at twelve o'clock and going clockwise. The circle grows past radius when
// the members would otherwise overlap.
func Spread(center geo.PixelPoint, count int, radius float64) []geo.PixelPoint {
	if count <= 0 {
		return nil
	}
	if count == 1 {
		return []geo.PixelPoint{center}
	}

	r := math.Max(radius, float64(count)*markerSpacing/(2*math.Pi))
	step := 2 * math.Pi / float64(count)

	out := make([]geo.PixelPoint, count)
	for i := range out {
		angle := -math.Pi/2 + float64(i)*step
		out[i] = geo.PixelPoint{
			X: center.X + r*math.Cos(angle),
			Y: center.Y + r*math.Sin(angle),
		}
	}
	return out
}
