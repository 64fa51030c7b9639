package digital

import (
	"context"

	"gorm.io/gorm"

	"github.com/zalar2202/logashop/pkg/db/models"
)

// Repository persists digital delivery grants.
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

// Create inserts one grant per call.
func (r *Repository) Create(ctx context.Context, grant *models.DigitalDelivery) error {
	return r.db.WithContext(ctx).Create(grant).Error
}

// FindByToken loads a grant by its download token.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.DigitalDelivery, error) {
	var grant models.DigitalDelivery
	err := r.db.WithContext(ctx).
		Where("download_token = ?", token).
		First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// RecordDownload bumps the counter, guarded so a grant never exceeds
// its download cap. Returns false when the cap was already reached.
func (r *Repository) RecordDownload(ctx context.Context, token string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DigitalDelivery{}).
		Where("download_token = ? AND (max_downloads = 0 OR download_count < max_downloads)", token).
		UpdateColumn("download_count", gorm.Expr("download_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
