package mapcore

import (
	"propertymap/server/internal/cluster"
	"propertymap/server/internal/geo"
	"propertymap/server/internal/models"
)

// MarkerKind tells a renderer which marker to draw.
type MarkerKind string

const (
	MarkerSingle  MarkerKind = "single"
	MarkerCluster MarkerKind = "cluster"
)

// Marker is one thing to draw on the map surface.
type Marker struct {
	Kind      MarkerKind     `json:"kind"`
	ClusterID string         `json:"cluster_id"`
	Position  geo.PixelPoint `json:"position"`
	Count     int            `json:"count"`

	// Property is set on single markers.
	Property *models.Property `json:"property,omitempty"`

	// PropertyIDs and Prices are set on cluster markers.
	PropertyIDs []string            `json:"property_ids,omitempty"`
	Prices      *cluster.PriceStats `json:"prices,omitempty"`

	Hovered  bool `json:"hovered"`
	Selected bool `json:"selected"`
	Expanded bool `json:"expanded"`
}

// Markers returns the markers for the current clusters. The members of the
// expanded cluster are spread around its marker.
func (m *Map) Markers() []Marker {
	ui := m.state.Interaction
	markers := make([]Marker, 0, len(m.state.Clusters))

	for i := range m.state.Clusters {
		c := &m.state.Clusters[i]
		if c.IsSingle() {
			markers = append(markers, m.singleMarker(c.ID, c.Properties[0], c.Position, false))
			continue
		}

		expanded := ui.ExpandedClusterID == c.ID
		ids := make([]string, len(c.Properties))
		for j, p := range c.Properties {
			ids[j] = p.ID
		}
		prices := c.Prices()
		markers = append(markers, Marker{
			Kind:        MarkerCluster,
			ClusterID:   c.ID,
			Position:    c.Position,
			Count:       c.Size(),
			PropertyIDs: ids,
			Prices:      &prices,
			Hovered:     ui.HoveredClusterID == c.ID,
			Expanded:    expanded,
		})

		if !expanded {
			continue
		}
		positions := cluster.Spread(c.Position, c.Size(), m.opts.SpreadRadius)
		for j, p := range c.Properties {
			markers = append(markers, m.singleMarker(c.ID, p, positions[j], true))
		}
	}
	return markers
}

func (m *Map) singleMarker(clusterID string, p models.Property, pos geo.PixelPoint, expanded bool) Marker {
	ui := m.state.Interaction
	return Marker{
		Kind:      MarkerSingle,
		ClusterID: clusterID,
		Position:  pos,
		Count:     1,
		Property:  &p,
		Hovered:   ui.HoveredPropertyID == p.ID,
		Selected:  ui.SelectedPropertyID == p.ID,
		Expanded:  expanded,
	}
}
