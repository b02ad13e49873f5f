package models

import "time"

// Slot is one durable key/value blob, the database twin of a browser storage entry.
type Slot struct {
	Key       string    `gorm:"column:slot_key;type:text;primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
