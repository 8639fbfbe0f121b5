// Package ledger keeps an audit trail of processed orders in Postgres.
// Rows are only ever inserted; a run never reads them back.
package ledger

import (
	"context"
	"fmt"

	"orderbot/pkg/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Ledger writes order records.
type Ledger struct {
	db *gorm.DB
}

// Open connects to databaseURL and migrates the order_records table.
func Open(databaseURL string) (*Ledger, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Ledger, error) {
	if err := db.AutoMigrate(&models.OrderRecord{}); err != nil {
		return nil, fmt.Errorf("migrate order records: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Record inserts one order outcome.
func (l *Ledger) Record(ctx context.Context, rec models.OrderRecord) error {
	if err := l.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("record order %s: %w", rec.OrderNumber, err)
	}
	return nil
}

// Run returns the records written by one run, in insertion order. The robot
// never calls it; it is there for inspecting a ledger after the fact.
func (l *Ledger) Run(ctx context.Context, runID string) ([]models.OrderRecord, error) {
	var records []models.OrderRecord
	err := l.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&records).Error
	return records, err
}

// Close releases the underlying connection pool.
func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
