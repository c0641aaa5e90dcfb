package mapcore

import (
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertymap/server/internal/geo"
	"propertymap/server/internal/models"
	"propertymap/server/internal/searcharea"
)

type recorder struct {
	selected []models.Property
	hovered  []*models.Property
	changes  [][]models.Property
}

func (r *recorder) OnPropertySelect(p models.Property) { r.selected = append(r.selected, p) }
func (r *recorder) OnPropertyHover(p *models.Property) { r.hovered = append(r.hovered, p) }
func (r *recorder) OnSearchAreaChange(filtered []models.Property) {
	r.changes = append(r.changes, filtered)
}

func property(id string, lat, lng float64) models.Property {
	return models.Property{
		ID:          id,
		Coordinates: geo.LatLng{Lat: lat, Lng: lng},
		Price:       250000,
		Type:        models.PropertyTypeSale,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestMap(t *testing.T) (*Map, *recorder) {
	t.Helper()
	opts := DefaultOptions()
	opts.Viewport = geo.Viewport{Width: 800, Height: 600}
	rec := &recorder{}
	return New(opts, rec, testLogger()), rec
}

func twoGroups() []models.Property {
	return []models.Property{
		property("a", 34.05, -118.24),
		property("b", 34.051, -118.241),
		property("c", 34.10, -118.30),
		property("d", 34.101, -118.301),
	}
}

func ids(props []models.Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.ID
	}
	return out
}

func TestMap_EmptyUsesDefaultBounds(t *testing.T) {
	m, _ := newTestMap(t)

	state := m.State()
	assert.Equal(t, geo.DefaultBounds, state.Bounds)
	assert.Empty(t, state.Clusters)
	assert.Empty(t, m.Markers())
	assert.Empty(t, m.Filtered())
}

func TestMap_ClustersCloseProperties(t *testing.T) {
	m, _ := newTestMap(t)
	m.SetProperties([]models.Property{
		property("a", 34.05, -118.24),
		property("b", 34.051, -118.241),
		property("c", 34.10, -118.30),
	})

	clusters := m.Clusters()
	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"a", "b"}, ids(clusters[0].Properties))
	assert.True(t, clusters[1].IsSingle())

	markers := m.Markers()
	require.Len(t, markers, 2)
	assert.Equal(t, MarkerCluster, markers[0].Kind)
	assert.Equal(t, 2, markers[0].Count)
	assert.Equal(t, []string{"a", "b"}, markers[0].PropertyIDs)
	assert.Equal(t, MarkerSingle, markers[1].Kind)
	require.NotNil(t, markers[1].Property)
	assert.Equal(t, "c", markers[1].Property.ID)

	summary := m.Summary()
	assert.Equal(t, 3, summary.TotalProperties)
	assert.Equal(t, 1, summary.NumClusters)
	assert.Equal(t, 1, summary.NumSingles)
}

func TestMap_SkipsInvalidCoordinates(t *testing.T) {
	m, _ := newTestMap(t)
	m.SetProperties([]models.Property{
		property("a", 34.05, -118.24),
		property("nan", math.NaN(), -118.24),
		property("inf", 34.05, math.Inf(1)),
	})

	state := m.State()
	require.Len(t, state.Properties, 1)
	assert.Equal(t, "a", state.Properties[0].ID)
	assert.True(t, state.Bounds.Contains(geo.LatLng{Lat: 34.05, Lng: -118.24}))
}

func TestMap_ClusteringDisabled(t *testing.T) {
	m, _ := newTestMap(t)
	m.SetProperties(twoGroups())
	require.Len(t, m.Clusters(), 2)

	m.SetClustering(false, -1)

	clusters := m.Clusters()
	require.Len(t, clusters, 4)
	for _, c := range clusters {
		assert.True(t, c.IsSingle())
	}
	assert.Equal(t, 50.0, m.State().ClusterRadius)
}

func TestMap_DrawRectangleFiltersProperties(t *testing.T) {
	m, rec := newTestMap(t)
	m.SetProperties([]models.Property{
		property("inside", 34.07, -118.275),
		property("north", 34.09, -118.275),
		property("east", 34.07, -118.21),
	})
	m.SetVisibleBounds(geo.Bounds{North: 34.1, South: 34.0, East: -118.2, West: -118.3})

	require.NoError(t, m.SetDrawingMode(searcharea.ShapeRectangle))
	require.True(t, m.PointerDown(100, 100))
	m.PointerMove(200, 250)
	require.True(t, m.PointerUp(300, 300))

	areas := m.Areas()
	require.Len(t, areas, 1)
	assert.Equal(t, searcharea.ShapeRectangle, areas[0].Kind)
	assert.InDelta(t, 34.1-0.1/6, areas[0].Bounds.North, 1e-9)
	assert.InDelta(t, 34.05, areas[0].Bounds.South, 1e-9)
	assert.InDelta(t, -118.2875, areas[0].Bounds.West, 1e-9)
	assert.InDelta(t, -118.2625, areas[0].Bounds.East, 1e-9)

	require.Len(t, rec.changes, 1)
	assert.Equal(t, []string{"inside"}, ids(rec.changes[0]))
	assert.Equal(t, []string{"inside"}, ids(m.Filtered()))

	ui := m.Interaction()
	assert.False(t, ui.IsDrawing())
	assert.Equal(t, searcharea.ShapeNone, ui.DrawingMode)
}

func TestMap_DrawCircle(t *testing.T) {
	m, rec := newTestMap(t)
	m.SetProperties([]models.Property{
		property("center", 34.05, -118.25),
		property("far", 34.09, -118.21),
	})
	m.SetVisibleBounds(geo.Bounds{North: 34.1, South: 34.0, East: -118.2, West: -118.3})

	require.NoError(t, m.SetDrawingMode(searcharea.ShapeCircle))
	require.True(t, m.PointerDown(400, 300))
	m.PointerMove(480, 300)
	require.True(t, m.PointerUpOutside())

	areas := m.Areas()
	require.Len(t, areas, 1)
	require.NotNil(t, areas[0].Center)
	assert.InDelta(t, 0.01, areas[0].RadiusDegrees, 1e-9)
	require.Len(t, rec.changes, 1)
	assert.Equal(t, []string{"center"}, ids(rec.changes[0]))
}

func TestMap_DegenerateGestureAddsNothing(t *testing.T) {
	m, rec := newTestMap(t)
	m.SetProperties(twoGroups())

	require.NoError(t, m.SetDrawingMode(searcharea.ShapeRectangle))
	require.True(t, m.PointerDown(100, 100))
	assert.False(t, m.PointerUp(100, 100))

	assert.Empty(t, m.Areas())
	assert.Empty(t, rec.changes)
	assert.Equal(t, searcharea.ShapeNone, m.Interaction().DrawingMode)
}

func TestMap_PointerDownWithoutMode(t *testing.T) {
	m, _ := newTestMap(t)

	assert.False(t, m.PointerDown(10, 10))
	m.PointerMove(50, 50)
	assert.False(t, m.PointerUp(50, 50))
	assert.False(t, m.PointerUpOutside())
	assert.Empty(t, m.Areas())
}

func TestMap_DrawingDisabled(t *testing.T) {
	m, _ := newTestMap(t)

	require.NoError(t, m.SetDrawingMode(searcharea.ShapeRectangle))
	require.True(t, m.PointerDown(10, 10))

	m.SetDrawingEnabled(false)
	assert.False(t, m.Interaction().IsDrawing())
	assert.Equal(t, searcharea.ShapeNone, m.Interaction().DrawingMode)

	assert.ErrorIs(t, m.SetDrawingMode(searcharea.ShapeCircle), ErrDrawingDisabled)
	assert.NoError(t, m.SetDrawingMode(searcharea.ShapeNone))
	assert.False(t, m.PointerDown(10, 10))
}

func TestMap_ModeChangeDuringGesture(t *testing.T) {
	m, _ := newTestMap(t)

	require.NoError(t, m.SetDrawingMode(searcharea.ShapeRectangle))
	require.True(t, m.PointerDown(10, 10))

	assert.Error(t, m.SetDrawingMode(searcharea.ShapeCircle))
	assert.Equal(t, searcharea.ShapeRectangle, m.Interaction().DrawingMode)
}

func TestMap_CancelDrawingKeepsMode(t *testing.T) {
	m, rec := newTestMap(t)
	m.SetProperties(twoGroups())

	assert.False(t, m.CancelDrawing())

	require.NoError(t, m.SetDrawingMode(searcharea.ShapeRectangle))
	require.True(t, m.PointerDown(100, 100))
	m.PointerMove(300, 300)
	assert.True(t, m.CancelDrawing())

	ui := m.Interaction()
	assert.False(t, ui.IsDrawing())
	assert.Equal(t, searcharea.ShapeRectangle, ui.DrawingMode)
	assert.False(t, m.PointerUp(300, 300))
	assert.Empty(t, m.Areas())
	assert.Empty(t, rec.changes)

	require.True(t, m.PointerDown(100, 100))
	require.True(t, m.PointerUp(300, 300))
	assert.Len(t, m.Areas(), 1)
}

func TestMap_RemoveAndClearAreas(t *testing.T) {
	m, rec := newTestMap(t)
	m.SetProperties(twoGroups())
	m.SetVisibleBounds(geo.Bounds{North: 34.2, South: 34.0, East: -118.2, West: -118.4})

	draw := func(x1, y1, x2, y2 float64) {
		require.NoError(t, m.SetDrawingMode(searcharea.ShapeRectangle))
		require.True(t, m.PointerDown(x1, y1))
		require.True(t, m.PointerUp(x2, y2))
	}
	draw(0, 0, 400, 300)
	draw(400, 300, 800, 600)
	require.Len(t, m.Areas(), 2)

	first := m.Areas()[0].ID
	assert.True(t, m.RemoveArea(first))
	assert.False(t, m.RemoveArea(first))
	assert.Len(t, m.Areas(), 1)

	require.NoError(t, m.SetDrawingMode(searcharea.ShapeCircle))
	require.True(t, m.PointerDown(5, 5))
	m.ClearAreas()

	assert.Empty(t, m.Areas())
	assert.False(t, m.Interaction().IsDrawing())
	assert.Equal(t, searcharea.ShapeNone, m.Interaction().DrawingMode)
	assert.Len(t, m.Filtered(), 4)

	require.Len(t, rec.changes, 4)
	assert.Len(t, rec.changes[3], 4)

	m.ClearAreas()
	assert.Len(t, rec.changes, 4)
}

func TestMap_PropertyChangeRefiltersAreas(t *testing.T) {
	m, rec := newTestMap(t)
	m.SetVisibleBounds(geo.Bounds{North: 34.1, South: 34.0, East: -118.2, West: -118.3})
	require.NoError(t, m.SetDrawingMode(searcharea.ShapeRectangle))
	require.True(t, m.PointerDown(100, 100))
	require.True(t, m.PointerUp(300, 300))
	require.Len(t, rec.changes, 1)
	assert.Empty(t, rec.changes[0])

	m.SetProperties([]models.Property{
		property("inside", 34.07, -118.275),
		property("outside", 34.01, -118.21),
	})

	require.Len(t, rec.changes, 2)
	assert.Equal(t, []string{"inside"}, ids(rec.changes[1]))
}

func TestMap_ExpansionToggle(t *testing.T) {
	m, _ := newTestMap(t)
	m.SetProperties(twoGroups())
	require.Len(t, m.Clusters(), 2)

	assert.True(t, m.ClickCluster("cluster-a"))
	assert.Equal(t, "cluster-a", m.Interaction().ExpandedClusterID)

	markers := m.Markers()
	require.Len(t, markers, 4)
	assert.True(t, markers[0].Expanded)
	assert.Equal(t, MarkerSingle, markers[1].Kind)
	assert.True(t, markers[1].Expanded)
	assert.NotEqual(t, markers[1].Position, markers[2].Position)

	assert.True(t, m.ClickCluster("cluster-c"))
	assert.Equal(t, "cluster-c", m.Interaction().ExpandedClusterID)

	assert.True(t, m.ClickCluster("cluster-c"))
	assert.Empty(t, m.Interaction().ExpandedClusterID)

	assert.False(t, m.ClickCluster("cluster-missing"))
}

func TestMap_DuplicatePropertyIDsExpandOneCluster(t *testing.T) {
	m, _ := newTestMap(t)
	props := twoGroups()
	props[2].ID = "a"
	m.SetProperties(props)

	clusters := m.Clusters()
	require.Len(t, clusters, 2)
	require.NotEqual(t, clusters[0].ID, clusters[1].ID)

	require.True(t, m.ClickCluster(clusters[1].ID))
	expanded := 0
	for _, marker := range m.Markers() {
		if marker.Expanded {
			assert.Equal(t, clusters[1].ID, marker.ClusterID)
			expanded++
		}
	}
	assert.Equal(t, 3, expanded)
}

func TestMap_ExpansionSurvivesRecluster(t *testing.T) {
	m, _ := newTestMap(t)
	m.SetProperties(twoGroups())
	require.True(t, m.ClickCluster("cluster-a"))

	m.SetViewport(1024, 768)
	assert.Equal(t, "cluster-a", m.Interaction().ExpandedClusterID)

	m.SetClustering(false, -1)
	assert.Empty(t, m.Interaction().ExpandedClusterID)
}

func TestMap_ClickProperty(t *testing.T) {
	m, rec := newTestMap(t)
	m.SetProperties(twoGroups())
	require.True(t, m.ClickCluster("cluster-a"))

	assert.True(t, m.ClickProperty("b"))
	assert.Equal(t, "b", m.Interaction().SelectedPropertyID)
	assert.Equal(t, "cluster-a", m.Interaction().ExpandedClusterID)

	assert.True(t, m.ClickProperty("d"))
	assert.Equal(t, "d", m.Interaction().SelectedPropertyID)
	assert.Empty(t, m.Interaction().ExpandedClusterID)

	assert.False(t, m.ClickProperty("missing"))
	require.Len(t, rec.selected, 2)
	assert.Equal(t, "b", rec.selected[0].ID)
	assert.Equal(t, "d", rec.selected[1].ID)

	m.ClearSelection()
	assert.Empty(t, m.Interaction().SelectedPropertyID)
}

func TestMap_ClickSingleCluster(t *testing.T) {
	m, rec := newTestMap(t)
	m.SetProperties([]models.Property{
		property("a", 34.05, -118.24),
		property("c", 34.10, -118.30),
	})

	assert.True(t, m.ClickCluster("cluster-c"))
	assert.Equal(t, "c", m.Interaction().SelectedPropertyID)
	assert.Empty(t, m.Interaction().ExpandedClusterID)
	require.Len(t, rec.selected, 1)
}

func TestMap_Hover(t *testing.T) {
	m, rec := newTestMap(t)
	m.SetProperties(twoGroups())

	assert.True(t, m.HoverProperty("a"))
	assert.True(t, m.HoverProperty("a"))
	require.Len(t, rec.hovered, 1)
	require.NotNil(t, rec.hovered[0])
	assert.Equal(t, "a", rec.hovered[0].ID)

	assert.True(t, m.HoverCluster("cluster-c"))
	ui := m.Interaction()
	assert.Empty(t, ui.HoveredPropertyID)
	assert.Equal(t, "cluster-c", ui.HoveredClusterID)
	require.Len(t, rec.hovered, 2)
	assert.Nil(t, rec.hovered[1])

	assert.True(t, m.HoverProperty("d"))
	assert.Empty(t, m.Interaction().HoveredClusterID)

	m.ClearHover()
	assert.Empty(t, m.Interaction().HoveredPropertyID)
	require.Len(t, rec.hovered, 4)
	assert.Nil(t, rec.hovered[3])

	assert.False(t, m.HoverProperty("missing"))
	assert.False(t, m.HoverCluster("cluster-missing"))
}

func TestMap_HoverClearedWhenPropertyRemoved(t *testing.T) {
	m, rec := newTestMap(t)
	m.SetProperties(twoGroups())
	require.True(t, m.HoverProperty("a"))
	require.True(t, m.ClickProperty("a"))

	m.SetProperties([]models.Property{property("c", 34.10, -118.30)})

	ui := m.Interaction()
	assert.Empty(t, ui.HoveredPropertyID)
	assert.Empty(t, ui.SelectedPropertyID)
	require.Len(t, rec.hovered, 2)
	assert.Nil(t, rec.hovered[1])
}

func TestMap_ZoomAndFit(t *testing.T) {
	m, _ := newTestMap(t)
	m.SetProperties(twoGroups())
	fitted := m.State().Bounds

	m.SetZoom(1)
	zoomed := m.State().Bounds
	assert.InDelta(t, (fitted.North-fitted.South)/2, zoomed.North-zoomed.South, 1e-9)
	assert.Equal(t, 1.0, m.State().Zoom)

	m.SetVisibleBounds(geo.Bounds{North: 35, South: 33, East: -117, West: -119})
	assert.Equal(t, 0.0, m.State().Zoom)
	assert.Equal(t, 35.0, m.State().Bounds.North)

	m.SetVisibleBounds(geo.Bounds{North: math.NaN()})
	assert.Equal(t, 35.0, m.State().Bounds.North)

	m.FitBounds()
	assert.Equal(t, fitted, m.State().Bounds)
}

func TestMap_ZoomIsClamped(t *testing.T) {
	m, _ := newTestMap(t)
	m.SetProperties(twoGroups())

	m.SetZoom(-2000)
	state := m.State()
	assert.Equal(t, float64(MinZoom), state.Zoom)
	assert.True(t, state.Bounds.Valid())
	require.NotEmpty(t, m.Markers())
	for _, marker := range m.Markers() {
		assert.False(t, math.IsNaN(marker.Position.X))
		assert.False(t, math.IsNaN(marker.Position.Y))
	}

	m.SetZoom(math.Inf(1))
	assert.Equal(t, float64(MaxZoom), m.State().Zoom)
	assert.True(t, m.State().Bounds.Valid())

	m.SetZoom(math.NaN())
	assert.Equal(t, float64(MaxZoom), m.State().Zoom)
}

func TestMap_StateIsACopy(t *testing.T) {
	m, _ := newTestMap(t)
	m.SetProperties(twoGroups())

	state := m.State()
	state.Properties[0].ID = "changed"
	state.Clusters[0].ID = "changed"

	again := m.State()
	assert.Equal(t, "a", again.Properties[0].ID)
	assert.Equal(t, "cluster-a", again.Clusters[0].ID)
}

func TestNew_NilListenerAndLogger(t *testing.T) {
	m := New(DefaultOptions(), nil, nil)
	m.SetViewport(800, 600)
	m.SetProperties(twoGroups())
	assert.True(t, m.ClickProperty("a"))
	assert.True(t, m.HoverProperty("a"))
}
