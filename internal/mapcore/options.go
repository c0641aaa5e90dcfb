package mapcore

import (
	"propertymap/server/config"
	"propertymap/server/internal/cluster"
	"propertymap/server/internal/geo"
)

// Options configures a map instance.
type Options struct {
	ClusteringEnabled bool
	ClusterRadius     float64
	DrawingEnabled    bool

	// Padding in degrees around the fitted bounds.
	Padding float64

	// DefaultBounds is shown when there are no usable properties.
	DefaultBounds geo.Bounds

	// IndexThreshold is the property count from which clustering uses a
	// spatial index. Zero always uses the pairwise scan.
	IndexThreshold int

	// SpreadRadius is the pixel distance of expanded cluster members from
	// their cluster marker.
	SpreadRadius float64

	Viewport geo.Viewport
}

// DefaultOptions returns options with clustering and drawing enabled.
func DefaultOptions() Options {
	return Options{
		ClusteringEnabled: true,
		ClusterRadius:     cluster.DefaultRadius,
		DrawingEnabled:    true,
		Padding:           geo.DefaultPadding,
		DefaultBounds:     geo.DefaultBounds,
		SpreadRadius:      cluster.DefaultSpreadRadius,
	}
}

// NewOptions builds map options from the application configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		ClusteringEnabled: cfg.Map.ClusteringEnabled,
		ClusterRadius:     cfg.Map.ClusterRadius,
		DrawingEnabled:    cfg.Map.DrawingEnabled,
		Padding:           cfg.Map.BoundsPadding,
		DefaultBounds:     cfg.DefaultBounds(),
		IndexThreshold:    cfg.Map.IndexThreshold,
		SpreadRadius:      cfg.Map.SpreadRadius,
		Viewport: geo.Viewport{
			Width:  cfg.Map.ViewportWidth,
			Height: cfg.Map.ViewportHeight,
		},
	}
}
