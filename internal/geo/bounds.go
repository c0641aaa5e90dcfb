package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// DefaultPadding is the margin in degrees added around fitted bounds so
// markers on the edge are not clipped.
const DefaultPadding = 0.01

// DefaultBounds is the region shown when there is nothing to fit.
var DefaultBounds = Bounds{
	North: 34.34,
	South: 33.70,
	East:  -118.15,
	West:  -118.67,
}

// Bounds is a rectangular geographic extent.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// BoundsFromOrb converts an orb bound (x = longitude, y = latitude).
func BoundsFromOrb(b orb.Bound) Bounds {
	return Bounds{
		North: b.Max.Lat(),
		South: b.Min.Lat(),
		East:  b.Max.Lon(),
		West:  b.Min.Lon(),
	}
}

// BoundsAround returns the zero-extent bounds of a single position.
func BoundsAround(p LatLng) Bounds {
	return Bounds{North: p.Lat, South: p.Lat, East: p.Lng, West: p.Lng}
}

// Bound returns the bounds as an orb bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// Normalize swaps inverted edges so that North >= South and East >= West.
func (b Bounds) Normalize() Bounds {
	if b.North < b.South {
		b.North, b.South = b.South, b.North
	}
	if b.East < b.West {
		b.East, b.West = b.West, b.East
	}
	return b
}

// Valid reports whether all four edges are finite.
func (b Bounds) Valid() bool {
	return isFinite(b.North) && isFinite(b.South) && isFinite(b.East) && isFinite(b.West)
}

// Contains reports whether p lies inside the bounds, edges included.
func (b Bounds) Contains(p LatLng) bool {
	if !p.Valid() {
		return false
	}
	return b.Bound().Contains(p.Point())
}

// Extend grows the bounds to include p.
func (b Bounds) Extend(p LatLng) Bounds {
	return BoundsFromOrb(b.Bound().Extend(p.Point()))
}

// Center returns the middle of the bounds.
func (b Bounds) Center() LatLng {
	return FromPoint(b.Bound().Center())
}

// Pad expands every edge outward by d degrees.
func (b Bounds) Pad(d float64) Bounds {
	return BoundsFromOrb(b.Bound().Pad(d))
}

// Zoom scales the bounds around their center by 2^-level. Level 0 returns
// the bounds unchanged, positive levels zoom in. A level whose result is not
// finite also returns the bounds unchanged.
func (b Bounds) Zoom(level float64) Bounds {
	if level == 0 || !isFinite(level) {
		return b
	}
	factor := math.Pow(2, -level)
	c := b.Center()
	halfLat := (b.North - b.South) / 2 * factor
	halfLng := (b.East - b.West) / 2 * factor
	zoomed := Bounds{
		North: c.Lat + halfLat,
		South: c.Lat - halfLat,
		East:  c.Lng + halfLng,
		West:  c.Lng - halfLng,
	}
	if !zoomed.Valid() {
		return b
	}
	return zoomed
}

// CalculateBounds returns the smallest box holding every valid item, padded
// by padding degrees. Items with non-finite coordinates are skipped. When no
// item is usable the fallback region is returned.
func CalculateBounds[T Positioned](items []T, padding float64, fallback Bounds) Bounds {
	points := make(orb.MultiPoint, 0, len(items))
	for _, item := range items {
		pos := item.Position()
		if !pos.Valid() {
			continue
		}
		points = append(points, pos.Point())
	}
	if len(points) == 0 {
		return fallback
	}

	if padding < 0 || !isFinite(padding) {
		padding = 0
	}
	return BoundsFromOrb(points.Bound().Pad(padding))
}
