package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propertymap/server/config"
	"propertymap/server/internal/database"
	"propertymap/server/internal/geo"
	"propertymap/server/internal/interaction"
	"propertymap/server/internal/mapcore"
	"propertymap/server/internal/models"
	"propertymap/server/internal/searcharea"
)

// MapHandler drives map sessions over HTTP
type MapHandler struct {
	db       *database.Database
	sessions *SessionStore
	defaults mapcore.Options
	logger   *logrus.Logger
}

type CreateSessionRequest struct {
	Width             float64  `json:"width"`
	Height            float64  `json:"height"`
	Region            string   `json:"region"`
	ClusteringEnabled *bool    `json:"clustering_enabled"`
	ClusterRadius     *float64 `json:"cluster_radius"`
	DrawingEnabled    *bool    `json:"drawing_enabled"`
}

type ViewportRequest struct {
	Width  float64 `json:"width" binding:"gte=0"`
	Height float64 `json:"height" binding:"gte=0"`
}

type ZoomRequest struct {
	Level *float64 `json:"level" binding:"required,gte=-20,lte=30"`
}

type BoundsRequest struct {
	North *float64 `json:"north" binding:"required"`
	South *float64 `json:"south" binding:"required"`
	East  *float64 `json:"east" binding:"required"`
	West  *float64 `json:"west" binding:"required"`
}

type ClusteringRequest struct {
	Enabled *bool    `json:"enabled" binding:"required"`
	Radius  *float64 `json:"radius" binding:"omitempty,gt=0"`
}

type DrawingRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type ModeRequest struct {
	Mode string `json:"mode"`
}

type PointerRequest struct {
	Action string  `json:"action" binding:"required,oneof=down move up up_outside cancel"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type TargetRequest struct {
	PropertyID string `json:"property_id"`
	ClusterID  string `json:"cluster_id"`
}

func NewMapHandler(db *database.Database, sessions *SessionStore, cfg *config.Config, logger *logrus.Logger) *MapHandler {
	return &MapHandler{
		db:       db,
		sessions: sessions,
		defaults: mapcore.NewOptions(cfg),
		logger:   logger,
	}
}

// SetupMapRoutes adds map session routes to the router
func SetupMapRoutes(router *gin.Engine, handler *MapHandler) {
	sessions := router.Group("/api/map/sessions")
	sessions.POST("", handler.CreateSession)

	session := sessions.Group("/:id", handler.loadSession)
	{
		session.GET("", handler.GetSession)
		session.DELETE("", handler.DeleteSession)
		session.POST("/refresh", handler.Refresh)
		session.PUT("/viewport", handler.SetViewport)
		session.PUT("/zoom", handler.SetZoom)
		session.PUT("/bounds", handler.SetBounds)
		session.PUT("/clustering", handler.SetClustering)
		session.PUT("/drawing", handler.SetDrawing)
		session.PUT("/mode", handler.SetMode)
		session.POST("/pointer", handler.Pointer)
		session.POST("/hover", handler.Hover)
		session.POST("/click", handler.Click)
		session.GET("/markers", handler.GetMarkers)
		session.GET("/filtered", handler.GetFiltered)
		session.GET("/areas", handler.GetAreas)
		session.DELETE("/areas", handler.ClearAreas)
		session.DELETE("/areas/:areaId", handler.DeleteArea)
	}
}

const sessionKey = "session"

func (h *MapHandler) loadSession(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Map session not found"})
		return
	}
	c.Set(sessionKey, session)
	c.Next()
}

func sessionFrom(c *gin.Context) *Session {
	return c.MustGet(sessionKey).(*Session)
}

// respond writes the session view together with the events of the call
func respond(c *gin.Context, session *Session, events []Event, extra gin.H) {
	var view SessionView
	session.Do(func(m *mapcore.Map) { view = session.view(m) })

	body := gin.H{"session": view, "events": events}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func (h *MapHandler) badRequest(c *gin.Context, err error) {
	h.logger.WithError(err).Debug("Rejected map request")
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request parameters"})
}

func (h *MapHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, err)
			return
		}
	}

	var filter models.PropertyFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.badRequest(c, err)
		return
	}

	opts := h.defaults
	if req.Width > 0 && req.Height > 0 {
		opts.Viewport = geo.Viewport{Width: req.Width, Height: req.Height}
	}
	if req.Region != "" {
		region := config.GetRegionByName(req.Region)
		if region == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown region", "regions": config.GetRegionNames()})
			return
		}
		opts.DefaultBounds = region.Bounds
	}
	if req.ClusteringEnabled != nil {
		opts.ClusteringEnabled = *req.ClusteringEnabled
	}
	if req.ClusterRadius != nil && *req.ClusterRadius > 0 {
		opts.ClusterRadius = *req.ClusterRadius
	}
	if req.DrawingEnabled != nil {
		opts.DrawingEnabled = *req.DrawingEnabled
	}

	properties, err := h.db.GetAllProperties(filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get properties"})
		return
	}

	session, err := h.sessions.Create(opts, filter, properties)
	if err != nil {
		if errors.Is(err, ErrSessionStoreFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Too many map sessions"})
			return
		}
		h.logger.WithError(err).Error("Failed to create map session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create map session"})
		return
	}

	var view SessionView
	session.Do(func(m *mapcore.Map) { view = session.view(m) })
	c.JSON(http.StatusCreated, gin.H{"session": view})
}

func (h *MapHandler) GetSession(c *gin.Context) {
	session := sessionFrom(c)
	respond(c, session, []Event{}, nil)
}

func (h *MapHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Map session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh reloads the session's properties from the store
func (h *MapHandler) Refresh(c *gin.Context) {
	session := sessionFrom(c)

	properties, err := h.db.GetAllProperties(session.Filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get properties"})
		return
	}

	events := session.Do(func(m *mapcore.Map) { m.SetProperties(properties) })
	respond(c, session, events, nil)
}

func (h *MapHandler) SetViewport(c *gin.Context) {
	var req ViewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	session := sessionFrom(c)
	events := session.Do(func(m *mapcore.Map) { m.SetViewport(req.Width, req.Height) })
	respond(c, session, events, nil)
}

func (h *MapHandler) SetZoom(c *gin.Context) {
	var req ZoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	session := sessionFrom(c)
	events := session.Do(func(m *mapcore.Map) { m.SetZoom(*req.Level) })
	respond(c, session, events, nil)
}

// SetBounds shows an explicit region, for example after the client panned.
// An empty body refits to the properties.
func (h *MapHandler) SetBounds(c *gin.Context) {
	session := sessionFrom(c)
	if c.Request.ContentLength == 0 {
		events := session.Do(func(m *mapcore.Map) { m.FitBounds() })
		respond(c, session, events, nil)
		return
	}

	var req BoundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	bounds := geo.Bounds{North: *req.North, South: *req.South, East: *req.East, West: *req.West}
	if !bounds.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bounds must be finite"})
		return
	}

	events := session.Do(func(m *mapcore.Map) { m.SetVisibleBounds(bounds) })
	respond(c, session, events, nil)
}

func (h *MapHandler) SetClustering(c *gin.Context) {
	var req ClusteringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	radius := -1.0
	if req.Radius != nil {
		radius = *req.Radius
	}
	session := sessionFrom(c)
	events := session.Do(func(m *mapcore.Map) { m.SetClustering(*req.Enabled, radius) })
	respond(c, session, events, nil)
}

func (h *MapHandler) SetDrawing(c *gin.Context) {
	var req DrawingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	session := sessionFrom(c)
	events := session.Do(func(m *mapcore.Map) { m.SetDrawingEnabled(*req.Enabled) })
	respond(c, session, events, nil)
}

func (h *MapHandler) SetMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	mode, err := searcharea.ParseShape(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := sessionFrom(c)
	var modeErr error
	events := session.Do(func(m *mapcore.Map) { modeErr = m.SetDrawingMode(mode) })
	switch {
	case errors.Is(modeErr, interaction.ErrDrawingInProgress), errors.Is(modeErr, mapcore.ErrDrawingDisabled):
		c.JSON(http.StatusConflict, gin.H{"error": modeErr.Error()})
		return
	case modeErr != nil:
		h.logger.WithError(modeErr).Error("Failed to set drawing mode")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set drawing mode"})
		return
	}
	respond(c, session, events, nil)
}

// Pointer forwards a pointer event on the map surface
func (h *MapHandler) Pointer(c *gin.Context) {
	var req PointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	session := sessionFrom(c)
	handled := true
	events := session.Do(func(m *mapcore.Map) {
		switch req.Action {
		case "down":
			handled = m.PointerDown(req.X, req.Y)
		case "move":
			m.PointerMove(req.X, req.Y)
		case "up":
			handled = m.PointerUp(req.X, req.Y)
		case "up_outside":
			handled = m.PointerUpOutside()
		case "cancel":
			handled = m.CancelDrawing()
		}
	})
	respond(c, session, events, gin.H{"handled": handled})
}

// Hover sets the hovered property or cluster. An empty target clears it.
func (h *MapHandler) Hover(c *gin.Context) {
	var req TargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	session := sessionFrom(c)
	found := true
	events := session.Do(func(m *mapcore.Map) {
		switch {
		case req.PropertyID != "":
			found = m.HoverProperty(req.PropertyID)
		case req.ClusterID != "":
			found = m.HoverCluster(req.ClusterID)
		default:
			m.ClearHover()
		}
	})
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Hover target not found"})
		return
	}
	respond(c, session, events, nil)
}

// Click selects a property or toggles a cluster. An empty target clears the
// selection.
func (h *MapHandler) Click(c *gin.Context) {
	var req TargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	session := sessionFrom(c)
	found := true
	events := session.Do(func(m *mapcore.Map) {
		switch {
		case req.PropertyID != "":
			found = m.ClickProperty(req.PropertyID)
		case req.ClusterID != "":
			found = m.ClickCluster(req.ClusterID)
		default:
			m.ClearSelection()
		}
	})
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Click target not found"})
		return
	}
	respond(c, session, events, nil)
}

func (h *MapHandler) GetMarkers(c *gin.Context) {
	session := sessionFrom(c)
	var markers []mapcore.Marker
	session.Do(func(m *mapcore.Map) { markers = m.Markers() })
	c.JSON(http.StatusOK, markers)
}

func (h *MapHandler) GetFiltered(c *gin.Context) {
	session := sessionFrom(c)
	var properties []models.Property
	session.Do(func(m *mapcore.Map) { properties = m.Filtered() })
	c.JSON(http.StatusOK, properties)
}

// GetAreas returns the search areas as a GeoJSON feature collection
func (h *MapHandler) GetAreas(c *gin.Context) {
	session := sessionFrom(c)
	var areas []searcharea.Area
	session.Do(func(m *mapcore.Map) { areas = m.Areas() })
	c.JSON(http.StatusOK, searcharea.FeatureCollection(areas))
}

func (h *MapHandler) DeleteArea(c *gin.Context) {
	session := sessionFrom(c)
	removed := false
	events := session.Do(func(m *mapcore.Map) { removed = m.RemoveArea(c.Param("areaId")) })
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Search area not found"})
		return
	}
	respond(c, session, events, nil)
}

func (h *MapHandler) ClearAreas(c *gin.Context) {
	session := sessionFrom(c)
	events := session.Do(func(m *mapcore.Map) { m.ClearAreas() })
	respond(c, session, events, nil)
}
