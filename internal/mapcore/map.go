package mapcore

import (
	"errors"
	"math"
	"os"

	"github.com/sirupsen/logrus"

	"propertymap/server/internal/cluster"
	"propertymap/server/internal/geo"
	"propertymap/server/internal/interaction"
	"propertymap/server/internal/models"
	"propertymap/server/internal/searcharea"
)

// ErrDrawingDisabled is returned when a drawing mode is selected on a map
// with drawing turned off.
var ErrDrawingDisabled = errors.New("drawing is disabled")

// Zoom levels outside this range are clamped.
const (
	MinZoom = -20
	MaxZoom = 30
)

// State is everything one map instance knows. Map.State returns a copy.
type State struct {
	Properties        []models.Property `json:"properties"`
	Bounds            geo.Bounds        `json:"bounds"`
	Viewport          geo.Viewport      `json:"viewport"`
	Zoom              float64           `json:"zoom"`
	ClusteringEnabled bool              `json:"clustering_enabled"`
	ClusterRadius     float64           `json:"cluster_radius"`
	DrawingEnabled    bool              `json:"drawing_enabled"`
	Clusters          []cluster.Cluster `json:"clusters"`
	Areas             []searcharea.Area `json:"areas"`
	Interaction       interaction.State `json:"interaction"`
}

// Map is the controller for one interactive property map. It is not safe for
// concurrent use; a map has a single owner driving it from UI events.
type Map struct {
	opts     Options
	listener Listener
	logger   *logrus.Logger
	newID    func() string

	state    State
	fitted   geo.Bounds
	areas    *searcharea.Set
	props    map[string]int
	clusters map[string]int
}

// New creates an empty map. A nil listener discards events and a nil logger
// is replaced by a JSON logger on stdout.
func New(opts Options, listener Listener, logger *logrus.Logger) *Map {
	if listener == nil {
		listener = ListenerFuncs{}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	m := &Map{
		opts:     opts,
		listener: listener,
		logger:   logger,
		newID:    searcharea.NewID,
		areas:    searcharea.NewSet(),
		props:    make(map[string]int),
		clusters: make(map[string]int),
	}
	m.state.Viewport = opts.Viewport
	m.state.ClusteringEnabled = opts.ClusteringEnabled
	m.state.ClusterRadius = opts.ClusterRadius
	m.state.DrawingEnabled = opts.DrawingEnabled
	m.fitted = m.fit()
	m.state.Bounds = m.fitted
	m.recluster()
	return m
}

// SetProperties replaces the property list. Properties with non-finite
// coordinates are skipped. Bounds are refitted and clusters rebuilt.
func (m *Map) SetProperties(properties []models.Property) {
	valid := make([]models.Property, 0, len(properties))
	for _, p := range properties {
		if !p.Coordinates.Valid() {
			continue
		}
		valid = append(valid, p)
	}
	if skipped := len(properties) - len(valid); skipped > 0 {
		m.logger.WithField("skipped", skipped).Warn("Skipping properties with invalid coordinates")
	}

	m.state.Properties = valid
	m.props = make(map[string]int, len(valid))
	for i, p := range valid {
		if _, ok := m.props[p.ID]; !ok {
			m.props[p.ID] = i
		}
	}

	m.fitted = m.fit()
	m.state.Bounds = m.fitted.Zoom(m.state.Zoom)
	m.recluster()

	if m.areas.Len() > 0 {
		m.emitAreaChange()
	}
}

// SetViewport updates the rendered size of the map surface.
func (m *Map) SetViewport(width, height float64) {
	vp := geo.Viewport{Width: width, Height: height}
	if vp == m.state.Viewport {
		return
	}
	m.state.Viewport = vp
	m.recluster()
}

// SetZoom shows the fitted bounds scaled by 2^-level around their center.
// The level is clamped to [MinZoom, MaxZoom]; NaN is ignored.
func (m *Map) SetZoom(level float64) {
	if math.IsNaN(level) {
		return
	}
	level = math.Max(MinZoom, math.Min(MaxZoom, level))
	if level == m.state.Zoom {
		return
	}
	m.state.Zoom = level
	m.state.Bounds = m.fitted.Zoom(level)
	m.recluster()
}

// SetVisibleBounds overrides the visible region until the next refit, for
// example after the user panned the map. Zoom is reset to 0.
func (m *Map) SetVisibleBounds(b geo.Bounds) {
	if !b.Valid() {
		return
	}
	m.fitted = b.Normalize()
	m.state.Zoom = 0
	m.state.Bounds = m.fitted
	m.recluster()
}

// FitBounds refits the visible region to the properties at zoom 0.
func (m *Map) FitBounds() {
	m.fitted = m.fit()
	m.state.Zoom = 0
	m.state.Bounds = m.fitted
	m.recluster()
}

// SetClustering toggles clustering and sets the pixel radius. A radius below
// zero keeps the current one.
func (m *Map) SetClustering(enabled bool, radius float64) {
	if radius < 0 {
		radius = m.state.ClusterRadius
	}
	if enabled == m.state.ClusteringEnabled && radius == m.state.ClusterRadius {
		return
	}
	m.state.ClusteringEnabled = enabled
	m.state.ClusterRadius = radius
	m.recluster()
}

// SetDrawingEnabled gates the search-area drawing. Disabling it drops any
// gesture in progress and resets the drawing mode.
func (m *Map) SetDrawingEnabled(enabled bool) {
	m.state.DrawingEnabled = enabled
	if !enabled {
		m.state.Interaction, _ = m.state.Interaction.EndDraw()
	}
}

// SetDrawingMode selects the shape of the next gesture.
func (m *Map) SetDrawingMode(mode searcharea.Shape) error {
	if !m.state.DrawingEnabled && mode != searcharea.ShapeNone {
		return ErrDrawingDisabled
	}
	ui, err := m.state.Interaction.SetDrawingMode(mode)
	if err != nil {
		return err
	}
	m.state.Interaction = ui
	return nil
}

// PointerDown starts a drawing gesture when a drawing mode is selected. It
// reports whether a gesture started.
func (m *Map) PointerDown(x, y float64) bool {
	if !m.state.DrawingEnabled {
		return false
	}
	ui, started := m.state.Interaction.BeginDraw(geo.PixelPoint{X: x, Y: y})
	m.state.Interaction = ui
	return started
}

// PointerMove updates the gesture in progress. It never reclusters.
func (m *Map) PointerMove(x, y float64) {
	m.state.Interaction = m.state.Interaction.UpdateDraw(geo.PixelPoint{X: x, Y: y})
}

// PointerUp finishes the gesture at the release point and records the
// resulting search area. It reports whether an area was added.
func (m *Map) PointerUp(x, y float64) bool {
	if !m.state.Interaction.IsDrawing() {
		return false
	}
	m.state.Interaction = m.state.Interaction.UpdateDraw(geo.PixelPoint{X: x, Y: y})
	return m.completeDraw()
}

// PointerUpOutside finishes the gesture with its last known shape, for a
// release that happened outside the map surface.
func (m *Map) PointerUpOutside() bool {
	if !m.state.Interaction.IsDrawing() {
		return false
	}
	return m.completeDraw()
}

// CancelDrawing drops the gesture in progress without adding an area. The
// drawing mode stays selected so the next press starts a new gesture.
func (m *Map) CancelDrawing() bool {
	if !m.state.Interaction.IsDrawing() {
		return false
	}
	m.state.Interaction = m.state.Interaction.CancelDraw()
	return true
}

func (m *Map) completeDraw() bool {
	ui, g := m.state.Interaction.EndDraw()
	m.state.Interaction = ui
	if g == nil {
		return false
	}

	area, ok := g.Complete(m.Projector(), m.newID())
	if !ok {
		m.logger.WithField("shape", g.Shape.String()).Debug("Discarding empty drawing gesture")
		return false
	}
	if !m.areas.Add(area) {
		return false
	}

	m.logger.WithFields(logrus.Fields{
		"area_id": area.ID,
		"shape":   area.Kind.String(),
		"areas":   m.areas.Len(),
	}).Info("Added search area")
	m.emitAreaChange()
	return true
}

// RemoveArea deletes a search area by id.
func (m *Map) RemoveArea(id string) bool {
	if !m.areas.Remove(id) {
		return false
	}
	m.logger.WithField("area_id", id).Info("Removed search area")
	m.emitAreaChange()
	return true
}

// ClearAreas removes every search area and resets the drawing mode.
func (m *Map) ClearAreas() {
	had := m.areas.Len() > 0
	m.areas.Clear()
	m.state.Interaction, _ = m.state.Interaction.EndDraw()
	if had {
		m.logger.Info("Cleared search areas")
		m.emitAreaChange()
	}
}

// HoverProperty marks a property as hovered. Unknown ids are ignored and an
// empty id clears the hover.
func (m *Map) HoverProperty(id string) bool {
	if id == "" {
		m.ClearHover()
		return true
	}
	i, ok := m.props[id]
	if !ok {
		return false
	}

	prev := m.state.Interaction.HoveredPropertyID
	m.state.Interaction = m.state.Interaction.HoverProperty(id)
	if prev != id {
		p := m.state.Properties[i]
		m.listener.OnPropertyHover(&p)
	}
	return true
}

// HoverCluster marks a cluster as hovered, clearing any hovered property.
func (m *Map) HoverCluster(id string) bool {
	if id == "" {
		m.ClearHover()
		return true
	}
	if _, ok := m.clusters[id]; !ok {
		return false
	}

	prev := m.state.Interaction.HoveredPropertyID
	m.state.Interaction = m.state.Interaction.HoverCluster(id)
	if prev != "" {
		m.listener.OnPropertyHover(nil)
	}
	return true
}

// ClearHover clears both hover targets.
func (m *Map) ClearHover() {
	prev := m.state.Interaction.HoveredPropertyID
	m.state.Interaction = m.state.Interaction.ClearHover()
	if prev != "" {
		m.listener.OnPropertyHover(nil)
	}
}

// ClickProperty selects a property. Clicking a property outside the
// expanded cluster collapses it.
func (m *Map) ClickProperty(id string) bool {
	i, ok := m.props[id]
	if !ok {
		return false
	}

	ui := m.state.Interaction.Select(id)
	if ui.ExpandedClusterID != "" {
		if c := m.cluster(ui.ExpandedClusterID); c == nil || !c.Contains(id) {
			ui = ui.Collapse()
		}
	}
	m.state.Interaction = ui
	m.listener.OnPropertySelect(m.state.Properties[i])
	return true
}

// ClickCluster toggles the expansion of a cluster. A single-property
// cluster is treated as a click on its property.
func (m *Map) ClickCluster(id string) bool {
	c := m.cluster(id)
	if c == nil {
		return false
	}
	if c.IsSingle() {
		return m.ClickProperty(c.Properties[0].ID)
	}
	m.state.Interaction = m.state.Interaction.ToggleCluster(id)
	return true
}

// ClearSelection clears the selected property.
func (m *Map) ClearSelection() {
	m.state.Interaction = m.state.Interaction.ClearSelection()
}

// Filtered returns the properties inside the search areas, or every
// property when no area is drawn.
func (m *Map) Filtered() []models.Property {
	filtered := m.areas.Filter(m.state.Properties)
	out := make([]models.Property, len(filtered))
	copy(out, filtered)
	return out
}

// Areas returns the search areas in insertion order.
func (m *Map) Areas() []searcharea.Area {
	return m.areas.Areas()
}

// Clusters returns a copy of the current clusters.
func (m *Map) Clusters() []cluster.Cluster {
	out := make([]cluster.Cluster, len(m.state.Clusters))
	copy(out, m.state.Clusters)
	return out
}

// Summary aggregates the current clusters.
func (m *Map) Summary() cluster.Summary {
	return cluster.Summarize(m.state.Clusters)
}

// Interaction returns the interaction state.
func (m *Map) Interaction() interaction.State {
	return m.state.Interaction
}

// Projector returns the projector for the visible bounds and viewport.
func (m *Map) Projector() geo.Projector {
	return geo.NewProjector(m.state.Bounds, m.state.Viewport)
}

// State returns a snapshot of the map state.
func (m *Map) State() State {
	s := m.state
	s.Properties = append([]models.Property(nil), m.state.Properties...)
	s.Clusters = m.Clusters()
	s.Areas = m.areas.Areas()
	if g := m.state.Interaction.Gesture; g != nil {
		gc := *g
		s.Interaction.Gesture = &gc
	}
	return s
}

func (m *Map) fit() geo.Bounds {
	return geo.CalculateBounds(m.state.Properties, m.opts.Padding, m.opts.DefaultBounds)
}

func (m *Map) cluster(id string) *cluster.Cluster {
	i, ok := m.clusters[id]
	if !ok {
		return nil
	}
	return &m.state.Clusters[i]
}

func (m *Map) recluster() {
	m.state.Clusters = cluster.Build(m.state.Properties, m.Projector(), cluster.Options{
		Enabled:        m.state.ClusteringEnabled,
		Radius:         m.state.ClusterRadius,
		IndexThreshold: m.opts.IndexThreshold,
	})

	m.clusters = make(map[string]int, len(m.state.Clusters))
	for i, c := range m.state.Clusters {
		m.clusters[c.ID] = i
	}

	prevHover := m.state.Interaction.HoveredPropertyID
	m.state.Interaction = m.state.Interaction.Reconcile(
		func(id string) bool { _, ok := m.clusters[id]; return ok },
		func(id string) bool { _, ok := m.props[id]; return ok },
	)
	if c := m.cluster(m.state.Interaction.ExpandedClusterID); c != nil && c.IsSingle() {
		m.state.Interaction = m.state.Interaction.Collapse()
	}
	if prevHover != "" && m.state.Interaction.HoveredPropertyID == "" {
		m.listener.OnPropertyHover(nil)
	}

	m.logger.WithFields(logrus.Fields{
		"properties": len(m.state.Properties),
		"clusters":   len(m.state.Clusters),
		"clustering": m.state.ClusteringEnabled,
		"radius":     m.state.ClusterRadius,
	}).Debug("Recomputed clusters")
}

func (m *Map) emitAreaChange() {
	m.listener.OnSearchAreaChange(m.Filtered())
}
