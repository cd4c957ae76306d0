package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quipcup/models"
)

var ErrNotFound = errors.New("document not stored")

// Cache is the durable local copy of the document.
type Cache interface {
	Load(ctx context.Context) ([]byte, time.Time, error)
	Save(ctx context.Context, raw []byte) error
}

type GormCache struct {
	db  *gorm.DB
	key string
}

func NewGormCache(db *gorm.DB) *GormCache {
	return &GormCache{db: db, key: models.StorageKey}
}

// Migrate creates the cache table.
func (c *GormCache) Migrate() error {
	return c.db.AutoMigrate(&models.CacheEntry{})
}

func (c *GormCache) Load(ctx context.Context) ([]byte, time.Time, error) {
	var entry models.CacheEntry
	err := c.db.WithContext(ctx).Where("storage_key = ?", c.key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load cache: %w", err)
	}
	return []byte(entry.Body), entry.UpdatedAt, nil
}

func (c *GormCache) Save(ctx context.Context, raw []byte) error {
	entry := models.CacheEntry{
		Key:       c.key,
		Body:      datatypes.JSON(raw),
		UpdatedAt: time.Now().UTC(),
	}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	return nil
}
