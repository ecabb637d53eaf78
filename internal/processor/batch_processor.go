package processor

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"housefinder/server/config"
	"housefinder/server/internal/database"
	"housefinder/server/internal/models"
	"housefinder/server/internal/queue"
)

// Transactor is the part of *gorm.DB the processor needs
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor persists analytics event batches taken from the queue
type BatchProcessor struct {
	db     Transactor
	logger *logrus.Logger
	config *config.Config
	queue  *queue.EventQueue
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, queue *queue.EventQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
	}
}

// Start subscribes the processor to the queue
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(p.processBatch)
}

// Stop closes the queue, waiting for the batches already accepted
func (p *BatchProcessor) Stop() {
	if err := p.queue.Close(); err != nil {
		p.logger.WithError(err).Error("Failed to close event queue")
	}
}

// processBatch writes a single batch in a transaction, retrying on failure
func (p *BatchProcessor) processBatch(batch []*models.Event) error {
	var err error
	for attempt := 0; attempt <= p.config.Analytics.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.Analytics.MaxRetries)
			time.Sleep(time.Duration(p.config.Analytics.RetryDelay) * time.Second)
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := database.InsertEvents(tx, batch); err != nil {
				return fmt.Errorf("failed to insert events batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.logger.Debugf("Successfully processed batch of %d events", len(batch))
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.Analytics.MaxRetries+1, err)
}
