package audit

import (
	"context"
	"fmt"

	"pense-backend/internal/models"

	"gorm.io/gorm"
)

// GormRecorder persists the trail next to the records, sharing the local
// store's database handle.
type GormRecorder struct {
	db *gorm.DB
}

func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

func (r *GormRecorder) Record(ctx context.Context, e Entry) error {
	log := models.AuditLog{
		Username:    e.Username,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
		BeforeData:  marshalSnapshot(e.Before),
		AfterData:   marshalSnapshot(e.After),
	}

	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// List returns the most recent entries, optionally filtered by entity type.
func (r *GormRecorder) List(ctx context.Context, entityType string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	dbq := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if entityType != "" {
		dbq = dbq.Where("entity_type = ?", entityType)
	}

	var logs []models.AuditLog
	if err := dbq.Order("id desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
