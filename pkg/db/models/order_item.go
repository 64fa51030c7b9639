package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zalar2202/logashop/pkg/enums"
	"github.com/zalar2202/logashop/pkg/types"
)

// OrderItem freezes one cart line at the moment of purchase.
type OrderItem struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID               `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID              `gorm:"column:variant_id;type:uuid"`
	Name           string                  `gorm:"column:name;not null"`
	Slug           string                  `gorm:"column:slug;not null"`
	SKU            string                  `gorm:"column:sku;not null"`
	ImageURL       *string                 `gorm:"column:image_url"`
	Attributes     types.VariantAttributes `gorm:"column:attributes;type:jsonb;serializer:json"`
	ProductType    enums.ProductType       `gorm:"column:product_type;type:product_type;not null"`
	UnitPriceCents int                     `gorm:"column:unit_price_cents;not null"`
	Quantity       int                     `gorm:"column:quantity;not null"`
	LineTotalCents int                     `gorm:"column:line_total_cents;not null"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
}

// DisplayName renders the item name with its variant attributes.
func (i OrderItem) DisplayName() string {
	if label := i.Attributes.Label(); label != "" {
		return i.Name + " (" + label + ")"
	}
	return i.Name
}
