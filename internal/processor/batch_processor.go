package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"propertymap/server/config"
	"propertymap/server/internal/database"
	"propertymap/server/internal/models"
	"propertymap/server/internal/queue"
)

// BatchProcessor stores the property batches pushed onto the import queue
type BatchProcessor struct {
	db        *gorm.DB
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.PropertyQueue
	subscribe sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db *gorm.DB, queue *queue.PropertyQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the processor to the queue. Calling it again is a no-op.
func (p *BatchProcessor) Start() {
	p.subscribe.Do(func() {
		p.queue.Subscribe(func(batch queue.Batch) error {
			return p.processBatch(p.ctx, batch)
		})
	})
}

// Stop aborts pending retries. Batches handed over afterwards fail fast.
func (p *BatchProcessor) Stop() {
	p.cancel()
}

// validProperties drops the properties the map could not place
func (p *BatchProcessor) validProperties(batch queue.Batch) []*models.Property {
	valid := make([]*models.Property, 0, len(batch.Properties))
	for _, prop := range batch.Properties {
		if prop == nil {
			continue
		}
		if err := prop.Validate(); err != nil {
			p.logger.WithError(err).WithField("batch_id", batch.ID).Warn("Skipping invalid property")
			continue
		}
		valid = append(valid, prop)
	}
	return valid
}

// processBatch handles a single batch of properties with transaction and retry logic
func (p *BatchProcessor) processBatch(ctx context.Context, batch queue.Batch) error {
	properties := p.validProperties(batch)
	if len(properties) == 0 {
		p.logger.WithField("batch_id", batch.ID).Warn("Batch has no valid properties")
		return nil
	}

	log := p.logger.WithFields(logrus.Fields{
		"batch_id":   batch.ID,
		"batch_size": len(properties),
		"rejected":   len(batch.Properties) - len(properties),
	})

	maxRetries := p.config.BatchProcessing.MaxRetries
	delay := time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			log.Infof("Retrying batch processing, attempt %d of %d", attempt, maxRetries)
			select {
			case <-ctx.Done():
				return fmt.Errorf("batch processing aborted: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := database.UpsertProperties(tx, properties); err != nil {
				return fmt.Errorf("failed to upsert properties batch: %w", err)
			}
			return nil
		})

		if err == nil {
			log.WithField("queued_for", time.Since(batch.ReceivedAt).String()).Info("Successfully processed batch")
			return nil
		}

		log.WithError(err).Error("Batch processing failed")
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", maxRetries+1, err)
}
