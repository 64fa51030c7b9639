package shipping

import (
	"context"

	"gorm.io/gorm"

	"github.com/zalar2202/logashop/pkg/db/models"
)

// Repository exposes persistence helpers for shipping zones.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListActiveZones loads every active zone with its methods preloaded in
// display order. Zones come back ordered by sort_order then name so the
// matcher's tie-break is deterministic.
func (r *Repository) ListActiveZones(ctx context.Context) ([]models.ShippingZone, error) {
	var zones []models.ShippingZone
	err := r.db.WithContext(ctx).
		Preload("Methods", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&zones).Error
	if err != nil {
		return nil, err
	}
	return zones, nil
}
