package models

import (
	"time"

	"gorm.io/datatypes"
)

// CacheEntry is the durable local copy of the document. There is one row,
// keyed by StorageKey.
type CacheEntry struct {
	Key       string         `json:"key" gorm:"column:storage_key;primaryKey;size:64"`
	Body      datatypes.JSON `json:"body" gorm:"not null"`
	UpdatedAt time.Time      `json:"updated_at"`
}
