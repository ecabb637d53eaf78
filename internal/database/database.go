package database

import (
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"housefinder/server/internal/models"
)

// LookupEntry is one memoized lookup result
type LookupEntry struct {
	Namespace string `gorm:"primaryKey;size:64"`
	LookupKey string `gorm:"primaryKey;size:512"`
	Value     []byte
	CreatedAt time.Time
}

func (LookupEntry) TableName() string {
	return "lookup_cache"
}

// Database persists memoized lookups and analytics events in sqlite.
// It implements cache.Store.
type Database struct {
	db *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

func (d *Database) Get(namespace, key string) ([]byte, bool) {
	var entry LookupEntry
	err := d.db.Where("namespace = ? AND lookup_key = ?", namespace, key).Take(&entry).Error
	if err != nil {
		return nil, false
	}
	return entry.Value, true
}

func (d *Database) Set(namespace, key string, value []byte) error {
	entry := LookupEntry{
		Namespace: namespace,
		LookupKey: key,
		Value:     value,
	}

	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "lookup_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to store lookup: %w", err)
	}
	return nil
}

// InsertEvents writes a batch of analytics events within tx
func InsertEvents(tx *gorm.DB, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}
	if tx == nil {
		return errors.New("no transaction")
	}
	return tx.Create(events).Error
}

// CountEvents returns the number of persisted analytics events
func (d *Database) CountEvents() (int64, error) {
	var count int64
	if err := d.db.Model(&models.Event{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
