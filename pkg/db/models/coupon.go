package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zalar2202/logashop/pkg/enums"
)

// Coupon is a redeemable discount code. Percentage coupons carry the
// percent in Value; fixed coupons carry cents.
type Coupon struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code             string             `gorm:"column:code;not null;uniqueIndex"`
	Description      *string            `gorm:"column:description"`
	Type             enums.DiscountType `gorm:"column:type;type:discount_type;not null"`
	Value            int                `gorm:"column:value;not null"`
	MinPurchaseCents *int               `gorm:"column:min_purchase_cents"`
	MaxDiscountCents *int               `gorm:"column:max_discount_cents"`
	UsageLimit       *int               `gorm:"column:usage_limit"`
	UsageCount       int                `gorm:"column:usage_count;not null;default:0"`
	PerUserLimit     *int               `gorm:"column:per_user_limit"`
	IsActive         bool               `gorm:"column:is_active;not null;default:true"`
	StartsAt         *time.Time         `gorm:"column:starts_at"`
	EndsAt           *time.Time         `gorm:"column:ends_at"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// RedeemableAt explains why the coupon cannot be applied at the given
// subtotal and time; an empty reason means it can.
func (c *Coupon) RedeemableAt(subtotalCents int, now time.Time) (bool, string) {
	if c == nil || !c.IsActive {
		return false, "coupon is not active"
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false, "coupon is not active yet"
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return false, "coupon has expired"
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return false, "coupon usage limit reached"
	}
	if c.MinPurchaseCents != nil && subtotalCents < *c.MinPurchaseCents {
		return false, "order subtotal below coupon minimum"
	}
	return true, ""
}
