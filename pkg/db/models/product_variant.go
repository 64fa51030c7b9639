package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zalar2202/logashop/pkg/types"
)

// ProductVariant is a concrete option combination of a product. Its
// attributes list is ordered and identifies the variant.
type ProductVariant struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	SKU        *string                 `gorm:"column:sku;uniqueIndex"`
	Attributes types.VariantAttributes `gorm:"column:attributes;type:jsonb;serializer:json;not null"`
	PriceCents *int                    `gorm:"column:price_cents"`
	Stock      *int                    `gorm:"column:stock"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
