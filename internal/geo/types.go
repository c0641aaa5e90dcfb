package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// LatLng is a geographic position in degrees.
type LatLng struct {
	Lat float64 `json:"lat" gorm:"column:lat"`
	Lng float64 `json:"lng" gorm:"column:lng"`
}

// Valid reports whether both coordinates are finite numbers.
func (l LatLng) Valid() bool {
	return isFinite(l.Lat) && isFinite(l.Lng)
}

// Position lets a bare LatLng be used wherever a Positioned is expected.
func (l LatLng) Position() LatLng {
	return l
}

// Point returns the position as an orb point (x = longitude, y = latitude).
func (l LatLng) Point() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// FromPoint converts an orb point back to a LatLng.
func FromPoint(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// Positioned is implemented by anything that sits on the map.
type Positioned interface {
	Position() LatLng
}

// PixelPoint is a position in viewport-local pixels, y growing downward.
type PixelPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p PixelPoint) point() orb.Point {
	return orb.Point{p.X, p.Y}
}

// PixelRect is an axis-aligned rectangle in viewport pixels.
type PixelRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TopLeft returns the rectangle's minimum corner.
func (r PixelRect) TopLeft() PixelPoint {
	return PixelPoint{X: r.X, Y: r.Y}
}

// BottomRight returns the rectangle's maximum corner.
func (r PixelRect) BottomRight() PixelPoint {
	return PixelPoint{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Empty reports whether the rectangle has no area.
func (r PixelRect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Viewport is the rendered size of the map surface.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Measurable reports whether the viewport has a usable size.
func (v Viewport) Measurable() bool {
	return v.Width > 0 && v.Height > 0 && isFinite(v.Width) && isFinite(v.Height)
}

// PixelDistance is the Euclidean distance between two pixel points.
func PixelDistance(a, b PixelPoint) float64 {
	return planar.Distance(a.point(), b.point())
}

// DegreeDistance is the Euclidean distance in raw degree space. It is not a
// geodesic distance.
func DegreeDistance(a, b LatLng) float64 {
	return planar.Distance(a.Point(), b.Point())
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
