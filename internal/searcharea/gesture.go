package searcharea

import (
	"math"

	"propertymap/server/internal/geo"
)

// Gesture is an in-progress drawing gesture in pixel space.
type Gesture struct {
	Shape   Shape          `json:"shape"`
	Start   geo.PixelPoint `json:"start"`
	Current geo.PixelRect  `json:"current"`

	// Radius is the circle radius in pixels; zero for rectangles.
	Radius float64 `json:"radius,omitempty"`
}

// StartGesture begins a gesture at pt.
func StartGesture(shape Shape, pt geo.PixelPoint) Gesture {
	return Gesture{
		Shape:   shape,
		Start:   pt,
		Current: geo.PixelRect{X: pt.X, Y: pt.Y},
	}
}

// Update moves the free end of the gesture to pt. Rectangles are normalized
// so the drag direction does not matter; circles are centered on the start
// point with their radius reaching pt.
func (g Gesture) Update(pt geo.PixelPoint) Gesture {
	switch g.Shape {
	case ShapeCircle:
		r := geo.PixelDistance(g.Start, pt)
		g.Radius = r
		g.Current = geo.PixelRect{
			X:      g.Start.X - r,
			Y:      g.Start.Y - r,
			Width:  2 * r,
			Height: 2 * r,
		}
	default:
		g.Current = geo.PixelRect{
			X:      math.Min(g.Start.X, pt.X),
			Y:      math.Min(g.Start.Y, pt.Y),
			Width:  math.Abs(pt.X - g.Start.X),
			Height: math.Abs(pt.Y - g.Start.Y),
		}
	}
	return g
}

// Degenerate reports whether the gesture encloses no area.
func (g Gesture) Degenerate() bool {
	if g.Shape == ShapeCircle {
		return !(g.Radius > 0)
	}
	return g.Current.Empty()
}

// Complete converts the gesture into a geographic search area using proj.
// It returns false when the gesture encloses no area.
func (g Gesture) Complete(proj geo.Projector, id string) (Area, bool) {
	if g.Degenerate() {
		return Area{}, false
	}

	nw := proj.ToGeo(g.Current.TopLeft())
	se := proj.ToGeo(g.Current.BottomRight())
	area := Area{
		ID:          id,
		Kind:        ShapeRectangle,
		Bounds:      geo.Bounds{North: nw.Lat, South: se.Lat, East: se.Lng, West: nw.Lng}.Normalize(),
		PixelBounds: g.Current,
	}

	if g.Shape == ShapeCircle {
		center := proj.ToGeo(g.Start)
		edge := proj.ToGeo(geo.PixelPoint{X: g.Start.X + g.Radius, Y: g.Start.Y})
		area.Kind = ShapeCircle
		area.Center = &center
		area.RadiusDegrees = math.Abs(edge.Lng - center.Lng)
	}

	return area, true
}
