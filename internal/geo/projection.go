package geo

// MinExtent is the smallest span in degrees the projector will divide by.
const MinExtent = 1e-9

// Projector maps between geographic coordinates and viewport pixels by
// linear interpolation over the visible bounds. North is up, so pixel y is
// inverted relative to latitude.
type Projector struct {
	bounds   Bounds
	viewport Viewport
}

// NewProjector builds a projector for the given visible bounds and viewport.
// Inverted edges are swapped and spans narrower than MinExtent are widened
// around their center so projection never divides by zero.
func NewProjector(bounds Bounds, viewport Viewport) Projector {
	if !bounds.Valid() {
		bounds = DefaultBounds
	}
	bounds = bounds.Normalize()

	if bounds.East-bounds.West < MinExtent {
		mid := (bounds.East + bounds.West) / 2
		bounds.West = mid - MinExtent/2
		bounds.East = mid + MinExtent/2
	}
	if bounds.North-bounds.South < MinExtent {
		mid := (bounds.North + bounds.South) / 2
		bounds.South = mid - MinExtent/2
		bounds.North = mid + MinExtent/2
	}

	return Projector{bounds: bounds, viewport: viewport}
}

// Bounds returns the normalized bounds the projector works with.
func (p Projector) Bounds() Bounds {
	return p.bounds
}

// Viewport returns the pixel size the projector maps onto.
func (p Projector) Viewport() Viewport {
	return p.viewport
}

// ToPixel projects a geographic position onto the viewport.
func (p Projector) ToPixel(l LatLng) PixelPoint {
	b := p.bounds
	return PixelPoint{
		X: (l.Lng - b.West) / (b.East - b.West) * p.viewport.Width,
		Y: (b.North - l.Lat) / (b.North - b.South) * p.viewport.Height,
	}
}

// ToGeo is the inverse of ToPixel. A zero-sized viewport maps every pixel to
// the north-west corner.
func (p Projector) ToGeo(pt PixelPoint) LatLng {
	b := p.bounds
	var fx, fy float64
	if p.viewport.Width > 0 {
		fx = pt.X / p.viewport.Width
	}
	if p.viewport.Height > 0 {
		fy = pt.Y / p.viewport.Height
	}
	return LatLng{
		Lat: b.North - fy*(b.North-b.South),
		Lng: b.West + fx*(b.East-b.West),
	}
}

// GeoToPixel projects point for the given bounds and viewport size.
func GeoToPixel(point LatLng, bounds Bounds, width, height float64) PixelPoint {
	return NewProjector(bounds, Viewport{Width: width, Height: height}).ToPixel(point)
}

// PixelToGeo unprojects point for the given bounds and viewport size.
func PixelToGeo(point PixelPoint, bounds Bounds, width, height float64) LatLng {
	return NewProjector(bounds, Viewport{Width: width, Height: height}).ToGeo(point)
}
