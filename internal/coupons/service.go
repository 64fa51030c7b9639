package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zalar2202/logashop/pkg/db/models"
	"github.com/zalar2202/logashop/pkg/enums"
	pkgerrors "github.com/zalar2202/logashop/pkg/errors"
	"github.com/zalar2202/logashop/pkg/logger"
)

type couponLoader interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type usageCounter interface {
	CountCouponUsage(ctx context.Context, code string, userID *uuid.UUID, guestEmail *string) (int64, error)
}

// Buyer identifies who is redeeming a coupon; either field may be nil
// for anonymous carts.
type Buyer struct {
	UserID     *uuid.UUID
	GuestEmail *string
}

// Discount is the outcome of a successful coupon validation.
type Discount struct {
	CouponID    uuid.UUID
	Code        string
	Type        enums.DiscountType
	Value       int
	AmountCents int
}

// Validator applies coupon eligibility rules without writing anything.
// A coupon that fails validation yields a nil discount, never an error;
// checkout proceeds at full price.
type Validator struct {
	coupons couponLoader
	usage   usageCounter
	logg    *logger.Logger
	now     func() time.Time
}

// NewValidator builds the coupon validator.
func NewValidator(coupons couponLoader, usage usageCounter, logg *logger.Logger) (*Validator, error) {
	if coupons == nil {
		return nil, fmt.Errorf("coupon loader required")
	}
	if usage == nil {
		return nil, fmt.Errorf("usage counter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Validator{
		coupons: coupons,
		usage:   usage,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// Validate resolves the code against the catalog of coupons and computes
// the discount for the given subtotal. It performs no writes; the
// usage_count increment happens inside the checkout transaction once the
// order exists.
func (v *Validator) Validate(ctx context.Context, code string, subtotalCents int, buyer Buyer) (*Discount, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}

	coupon, err := v.coupons.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			v.skip(ctx, normalized, "coupon not found")
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	if ok, reason := coupon.RedeemableAt(subtotalCents, v.now().UTC()); !ok {
		v.skip(ctx, normalized, reason)
		return nil, nil
	}

	if coupon.PerUserLimit != nil && (buyer.UserID != nil || buyer.GuestEmail != nil) {
		used, err := v.usage.CountCouponUsage(ctx, coupon.Code, buyer.UserID, buyer.GuestEmail)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon usage")
		}
		if used >= int64(*coupon.PerUserLimit) {
			v.skip(ctx, normalized, "per-user limit reached")
			return nil, nil
		}
	}

	amount := discountAmount(coupon, subtotalCents)
	if amount <= 0 {
		v.skip(ctx, normalized, "discount computes to zero")
		return nil, nil
	}

	return &Discount{
		CouponID:    coupon.ID,
		Code:        coupon.Code,
		Type:        coupon.Type,
		Value:       coupon.Value,
		AmountCents: amount,
	}, nil
}

func (v *Validator) skip(ctx context.Context, code, reason string) {
	ctx = v.logg.WithFields(ctx, map[string]any{"coupon": code, "reason": reason})
	v.logg.Info(ctx, "coupon not applied")
}

// discountAmount computes the cent value of the discount. Percentages
// round half-up; both kinds are clamped so the discount never exceeds
// the subtotal.
func discountAmount(coupon *models.Coupon, subtotalCents int) int {
	var amount int
	switch coupon.Type {
	case enums.DiscountTypePercentage:
		raw := decimal.NewFromInt(int64(subtotalCents)).
			Mul(decimal.NewFromInt(int64(coupon.Value))).
			Div(decimal.NewFromInt(100)).
			Round(0)
		amount = int(raw.IntPart())
		if coupon.MaxDiscountCents != nil && amount > *coupon.MaxDiscountCents {
			amount = *coupon.MaxDiscountCents
		}
	case enums.DiscountTypeFixed:
		amount = coupon.Value
	default:
		return 0
	}
	if amount > subtotalCents {
		amount = subtotalCents
	}
	return amount
}
