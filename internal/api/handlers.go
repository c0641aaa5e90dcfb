package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propertymap/server/config"
	"propertymap/server/internal/database"
	"propertymap/server/internal/models"
	"propertymap/server/internal/queue"
)

type Handler struct {
	db           *database.Database
	queue        *queue.PropertyQueue
	logger       *logrus.Logger
	maxBatchSize int
}

type ImportRequest struct {
	Properties []*models.Property `json:"properties" binding:"required"`
}

func NewHandler(db *database.Database, q *queue.PropertyQueue, cfg *config.Config, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:           db,
		queue:        q,
		logger:       logger,
		maxBatchSize: cfg.BatchProcessing.MaxBatchSize,
	}
}

func (h *Handler) GetAllProperties(c *gin.Context) {
	var filter models.PropertyFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.WithError(err).Error("Failed to parse property filter")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters"})
		return
	}

	properties, err := h.db.GetAllProperties(filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get properties"})
		return
	}

	c.JSON(http.StatusOK, properties)
}

func (h *Handler) GetProperty(c *gin.Context) {
	property, err := h.db.GetProperty(c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property"})
		return
	}

	c.JSON(http.StatusOK, property)
}

// ImportProperties queues a batch for storage. Invalid properties are
// dropped by the processor, not here.
func (h *Handler) ImportProperties(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse import request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request parameters"})
		return
	}
	if len(req.Properties) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No properties to import"})
		return
	}
	if h.maxBatchSize > 0 && len(req.Properties) > h.maxBatchSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Batch exceeds the maximum size"})
		return
	}

	batchID, err := h.queue.Push(req.Properties)
	switch {
	case errors.Is(err, queue.ErrQueueFull):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Import queue is full, retry later"})
		return
	case errors.Is(err, queue.ErrQueueClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Import queue is closed"})
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to queue properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue properties"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "queued",
		"batch_id": batchID,
		"count":    len(req.Properties),
	})
}

func (h *Handler) GetRegions(c *gin.Context) {
	c.JSON(http.StatusOK, config.SupportedRegions)
}

func (h *Handler) Health(c *gin.Context) {
	count, err := h.db.CountProperties()
	if err != nil {
		h.logger.WithError(err).Error("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"properties":   count,
		"queued":       h.queue.Len(),
		"queue_closed": h.queue.IsClosed(),
	})
}
