package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zalar2202/logashop/pkg/enums"
	"github.com/zalar2202/logashop/pkg/types"
)

// Product represents the canonical catalog listing.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU             string              `gorm:"column:sku;not null;uniqueIndex"`
	Slug            string              `gorm:"column:slug;not null;uniqueIndex"`
	Name            string              `gorm:"column:name;not null"`
	Description     *string             `gorm:"column:description"`
	Type            enums.ProductType   `gorm:"column:type;type:product_type;not null;default:'physical'"`
	Status          enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'draft'"`
	BasePriceCents  int                 `gorm:"column:base_price_cents;not null"`
	SalePriceCents  *int                `gorm:"column:sale_price_cents"`
	Stock           int                 `gorm:"column:stock;not null;default:0"`
	AllowBackorder  bool                `gorm:"column:allow_backorder;not null;default:false"`
	TrackInventory  bool                `gorm:"column:track_inventory;not null;default:true"`
	TotalSold       int                 `gorm:"column:total_sold;not null;default:0"`
	PrimaryImageURL *string             `gorm:"column:primary_image_url"`
	DigitalFile     *types.DigitalFile  `gorm:"column:digital_file;type:jsonb;serializer:json"`
	Variants        []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// IsPurchasable reports whether the listing can appear on a new order.
func (p *Product) IsPurchasable() bool {
	return p != nil && p.Status == enums.ProductStatusActive
}

// EffectivePriceCents returns the sale price when one is set, otherwise
// the base price.
func (p *Product) EffectivePriceCents() int {
	if p.SalePriceCents != nil {
		return *p.SalePriceCents
	}
	return p.BasePriceCents
}

// IsDigital reports whether the product ships by email.
func (p *Product) IsDigital() bool {
	return p != nil && p.Type == enums.ProductTypeDigital
}
