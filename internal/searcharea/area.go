package searcharea

import (
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"propertymap/server/internal/geo"
	"propertymap/server/internal/models"
)

// Area is a user-drawn region in geographic space. Areas are immutable once
// created.
type Area struct {
	ID            string        `json:"id"`
	Kind          Shape         `json:"kind"`
	Bounds        geo.Bounds    `json:"bounds"`
	Center        *geo.LatLng   `json:"center,omitempty"`
	RadiusDegrees float64       `json:"radius_degrees,omitempty"`
	PixelBounds   geo.PixelRect `json:"pixel_bounds"`
}

// Contains reports whether p falls inside the area. Rectangles include their
// edges. Circles use Euclidean distance in degree space, which is only an
// approximation of distance on the map.
func (a Area) Contains(p geo.LatLng) bool {
	if !p.Valid() {
		return false
	}
	switch a.Kind {
	case ShapeCircle:
		if a.Center == nil {
			return false
		}
		return geo.DegreeDistance(p, *a.Center) <= a.RadiusDegrees
	case ShapeRectangle:
		return a.Bounds.Contains(p)
	default:
		return false
	}
}

// IsInArea reports whether the property lies inside the area.
func IsInArea(property models.Property, area Area) bool {
	return area.Contains(property.Coordinates)
}

// Feature returns the area as a GeoJSON feature. Rectangles become polygons;
// circles become their center point with the radius as a property.
func (a Area) Feature() *geojson.Feature {
	var g orb.Geometry = a.Bounds.Bound().ToPolygon()
	if a.Kind == ShapeCircle && a.Center != nil {
		g = a.Center.Point()
	}

	f := geojson.NewFeature(g)
	f.ID = a.ID
	f.Properties["id"] = a.ID
	f.Properties["kind"] = a.Kind.String()
	if a.Kind == ShapeCircle {
		f.Properties["radius_degrees"] = a.RadiusDegrees
	}
	return f
}

// FeatureCollection exports areas in order as a GeoJSON feature collection.
func FeatureCollection(areas []Area) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, a := range areas {
		fc.Append(a.Feature())
	}
	return fc
}

// NewID returns a time-ordered unique area id.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
