// Package interaction tracks what the user is doing on the map: the drawing
// gesture, hover, selection and cluster expansion. State is a plain value and
// every operation returns the updated copy.
package interaction

import (
	"errors"

	"propertymap/server/internal/geo"
	"propertymap/server/internal/searcharea"
)

// ErrDrawingInProgress is returned when the drawing mode is changed while a
// gesture is active.
var ErrDrawingInProgress = errors.New("drawing gesture in progress")

// State is the interaction state of one map. Empty ids mean nothing is
// hovered, selected or expanded.
type State struct {
	DrawingMode searcharea.Shape    `json:"drawing_mode"`
	Gesture     *searcharea.Gesture `json:"gesture,omitempty"`

	HoveredPropertyID  string `json:"hovered_property_id,omitempty"`
	HoveredClusterID   string `json:"hovered_cluster_id,omitempty"`
	SelectedPropertyID string `json:"selected_property_id,omitempty"`
	ExpandedClusterID  string `json:"expanded_cluster_id,omitempty"`
}

// IsDrawing reports whether a gesture is active.
func (s State) IsDrawing() bool {
	return s.Gesture != nil
}

// SetDrawingMode selects the shape the next gesture draws. The mode cannot
// change while a gesture is active.
func (s State) SetDrawingMode(mode searcharea.Shape) (State, error) {
	if s.IsDrawing() {
		return s, ErrDrawingInProgress
	}
	s.DrawingMode = mode
	return s, nil
}

// BeginDraw starts a gesture at pt. It does nothing and returns false when
// no drawing mode is selected or a gesture is already active.
func (s State) BeginDraw(pt geo.PixelPoint) (State, bool) {
	if s.IsDrawing() || s.DrawingMode == searcharea.ShapeNone {
		return s, false
	}
	g := searcharea.StartGesture(s.DrawingMode, pt)
	s.Gesture = &g
	return s, true
}

// UpdateDraw moves the active gesture to pt.
func (s State) UpdateDraw(pt geo.PixelPoint) State {
	if !s.IsDrawing() {
		return s
	}
	g := s.Gesture.Update(pt)
	s.Gesture = &g
	return s
}

// EndDraw finishes the active gesture and returns it. The state always goes
// back to idle with the drawing mode reset to none.
func (s State) EndDraw() (State, *searcharea.Gesture) {
	g := s.Gesture
	s.Gesture = nil
	s.DrawingMode = searcharea.ShapeNone
	return s, g
}

// CancelDraw drops the active gesture and keeps the drawing mode.
func (s State) CancelDraw() State {
	s.Gesture = nil
	return s
}

// HoverProperty marks a property as hovered and clears any hovered cluster.
func (s State) HoverProperty(id string) State {
	s.HoveredPropertyID = id
	if id != "" {
		s.HoveredClusterID = ""
	}
	return s
}

// HoverCluster marks a cluster as hovered and clears any hovered property.
func (s State) HoverCluster(id string) State {
	s.HoveredClusterID = id
	if id != "" {
		s.HoveredPropertyID = ""
	}
	return s
}

// ClearHover clears both hover targets.
func (s State) ClearHover() State {
	s.HoveredPropertyID = ""
	s.HoveredClusterID = ""
	return s
}

// Select makes id the selected property until replaced or cleared.
func (s State) Select(id string) State {
	s.SelectedPropertyID = id
	return s
}

// ClearSelection clears the selected property.
func (s State) ClearSelection() State {
	s.SelectedPropertyID = ""
	return s
}

// ToggleCluster expands the cluster, or collapses it when it is already the
// expanded one.
func (s State) ToggleCluster(id string) State {
	if s.ExpandedClusterID == id {
		s.ExpandedClusterID = ""
	} else {
		s.ExpandedClusterID = id
	}
	return s
}

// Collapse clears the expanded cluster.
func (s State) Collapse() State {
	s.ExpandedClusterID = ""
	return s
}

// Reconcile drops references to clusters and properties that no longer
// exist after a recomputation.
func (s State) Reconcile(clusterExists, propertyExists func(id string) bool) State {
	if s.HoveredClusterID != "" && !clusterExists(s.HoveredClusterID) {
		s.HoveredClusterID = ""
	}
	if s.ExpandedClusterID != "" && !clusterExists(s.ExpandedClusterID) {
		s.ExpandedClusterID = ""
	}
	if s.HoveredPropertyID != "" && !propertyExists(s.HoveredPropertyID) {
		s.HoveredPropertyID = ""
	}
	if s.SelectedPropertyID != "" && !propertyExists(s.SelectedPropertyID) {
		s.SelectedPropertyID = ""
	}
	return s
}
