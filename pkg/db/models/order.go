package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zalar2202/logashop/pkg/enums"
	"github.com/zalar2202/logashop/pkg/types"
)

// Order is the immutable snapshot written at checkout. All prices and
// addresses are frozen copies; later catalog edits never touch them.
type Order struct {
	ID                  uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber         string                 `gorm:"column:order_number;not null;uniqueIndex"`
	UserID              *uuid.UUID             `gorm:"column:user_id;type:uuid;index"`
	GuestEmail          *string                `gorm:"column:guest_email"`
	SessionID           *string                `gorm:"column:session_id"`
	Status              enums.OrderStatus      `gorm:"column:status;type:order_status;not null;default:'pending_payment'"`
	PaymentStatus       enums.PaymentStatus    `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	SubtotalCents       int                    `gorm:"column:subtotal_cents;not null"`
	ShippingCents       int                    `gorm:"column:shipping_cents;not null"`
	TaxCents            int                    `gorm:"column:tax_cents;not null"`
	DiscountCents       int                    `gorm:"column:discount_cents;not null;default:0"`
	TotalCents          int                    `gorm:"column:total_cents;not null"`
	ShippingMethodID    string                 `gorm:"column:shipping_method_id;not null"`
	ShippingMethodLabel string                 `gorm:"column:shipping_method_label;not null"`
	CouponCode          *string                `gorm:"column:coupon_code"`
	Discount            *types.AppliedDiscount `gorm:"column:discount;type:jsonb;serializer:json"`
	ShippingAddress     types.Address          `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	BillingAddress      types.Address          `gorm:"column:billing_address;type:jsonb;serializer:json;not null"`
	CustomerNote        *string                `gorm:"column:customer_note"`
	TrackingCode        string                 `gorm:"column:tracking_code;not null"`
	Items               []OrderItem            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// BuyerEmail returns the guest email when the order has no user.
func (o *Order) BuyerEmail() string {
	if o.GuestEmail != nil {
		return *o.GuestEmail
	}
	return ""
}
