package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/vendorverse/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Database stores slots in the slots table.
type Database struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDatabase(db *gorm.DB) (*Database, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	return &Database{db: db, now: time.Now}, nil
}

func (d *Database) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row models.Slot
	err := d.db.WithContext(ctx).Where("slot_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(row.Value), true, nil
}

func (d *Database) Set(ctx context.Context, key string, value []byte) error {
	row := models.Slot{Key: key, Value: string(value), UpdatedAt: d.now().UTC()}
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

func (d *Database) Delete(ctx context.Context, key string) error {
	return d.db.WithContext(ctx).Where("slot_key = ?", key).Delete(&models.Slot{}).Error
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
