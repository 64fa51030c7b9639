package models

import (
	"time"

	"github.com/google/uuid"
)

// ShippingMethod is a priced delivery option within a zone.
type ShippingMethod struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ZoneID             uuid.UUID `gorm:"column:zone_id;type:uuid;not null;index"`
	Code               string    `gorm:"column:code;not null"`
	Label              string    `gorm:"column:label;not null"`
	PriceCents         int       `gorm:"column:price_cents;not null"`
	FreeThresholdCents *int      `gorm:"column:free_threshold_cents"`
	IsActive           bool      `gorm:"column:is_active;not null;default:true"`
	Position           int       `gorm:"column:position;not null;default:0"`
	EstimatedDelivery  *string   `gorm:"column:estimated_delivery"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// FreeAt reports whether the method waives its cost at the given
// subtotal. The threshold boundary is inclusive.
func (m *ShippingMethod) FreeAt(subtotalCents int) bool {
	return m.FreeThresholdCents != nil && subtotalCents >= *m.FreeThresholdCents
}
