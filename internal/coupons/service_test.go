package coupons

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zalar2202/logashop/pkg/db/models"
	"github.com/zalar2202/logashop/pkg/enums"
	pkgerrors "github.com/zalar2202/logashop/pkg/errors"
	"github.com/zalar2202/logashop/pkg/logger"
)

type stubCouponLoader struct {
	coupon *models.Coupon
	err    error
}

func (s *stubCouponLoader) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.coupon, nil
}

type stubUsageCounter struct {
	count int64
	err   error
	calls int
}

func (s *stubUsageCounter) CountCouponUsage(ctx context.Context, code string, userID *uuid.UUID, guestEmail *string) (int64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.count, nil
}

func newValidator(t *testing.T, loader couponLoader, usage usageCounter) *Validator {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	v, err := NewValidator(loader, usage, logg)
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	v.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return v
}

func intPtr(v int) *int { return &v }

func percentCoupon(value int, maxCents *int) *models.Coupon {
	return &models.Coupon{
		ID:               uuid.New(),
		Code:             "SAVE10",
		Type:             enums.DiscountTypePercentage,
		Value:            value,
		MaxDiscountCents: maxCents,
		IsActive:         true,
	}
}

func TestValidate_PercentageRoundsHalfUp(t *testing.T) {
	t.Parallel()

	v := newValidator(t, &stubCouponLoader{coupon: percentCoupon(10, nil)}, &stubUsageCounter{})

	// 10% of 10005 is 1000.5, which rounds up to 1001.
	discount, err := v.Validate(context.Background(), "save10", 10005, Buyer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount == nil || discount.AmountCents != 1001 {
		t.Fatalf("expected 1001 cents, got %+v", discount)
	}
	if discount.Code != "SAVE10" {
		t.Fatalf("expected canonical code, got %q", discount.Code)
	}
}

func TestValidate_PercentageCappedAtMax(t *testing.T) {
	t.Parallel()

	v := newValidator(t, &stubCouponLoader{coupon: percentCoupon(20, intPtr(1000))}, &stubUsageCounter{})

	discount, err := v.Validate(context.Background(), "SAVE10", 10000, Buyer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount == nil || discount.AmountCents != 1000 {
		t.Fatalf("expected discount capped at 1000, got %+v", discount)
	}
}

func TestValidate_FixedNeverExceedsSubtotal(t *testing.T) {
	t.Parallel()

	coupon := &models.Coupon{
		ID:       uuid.New(),
		Code:     "FIVER",
		Type:     enums.DiscountTypeFixed,
		Value:    500,
		IsActive: true,
	}
	v := newValidator(t, &stubCouponLoader{coupon: coupon}, &stubUsageCounter{})

	discount, err := v.Validate(context.Background(), "FIVER", 300, Buyer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount == nil || discount.AmountCents != 300 {
		t.Fatalf("expected discount clamped to subtotal, got %+v", discount)
	}
}

func TestValidate_IneligibleCouponsYieldNoDiscount(t *testing.T) {
	t.Parallel()

	past := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		coupon *models.Coupon
	}{
		{"inactive", &models.Coupon{ID: uuid.New(), Code: "X", Type: enums.DiscountTypeFixed, Value: 100, IsActive: false}},
		{"expired", &models.Coupon{ID: uuid.New(), Code: "X", Type: enums.DiscountTypeFixed, Value: 100, IsActive: true, EndsAt: &past}},
		{"usage limit", &models.Coupon{ID: uuid.New(), Code: "X", Type: enums.DiscountTypeFixed, Value: 100, IsActive: true, UsageLimit: intPtr(5), UsageCount: 5}},
		{"min purchase", &models.Coupon{ID: uuid.New(), Code: "X", Type: enums.DiscountTypeFixed, Value: 100, IsActive: true, MinPurchaseCents: intPtr(5000)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newValidator(t, &stubCouponLoader{coupon: tc.coupon}, &stubUsageCounter{})
			discount, err := v.Validate(context.Background(), "X", 1000, Buyer{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if discount != nil {
				t.Fatalf("expected no discount, got %+v", discount)
			}
		})
	}
}

func TestValidate_PerUserLimit(t *testing.T) {
	t.Parallel()

	coupon := &models.Coupon{
		ID:           uuid.New(),
		Code:         "ONCE",
		Type:         enums.DiscountTypeFixed,
		Value:        100,
		IsActive:     true,
		PerUserLimit: intPtr(1),
	}
	userID := uuid.New()

	usage := &stubUsageCounter{count: 1}
	v := newValidator(t, &stubCouponLoader{coupon: coupon}, usage)

	discount, err := v.Validate(context.Background(), "ONCE", 1000, Buyer{UserID: &userID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount != nil {
		t.Fatalf("expected per-user limit to suppress discount, got %+v", discount)
	}
	if usage.calls != 1 {
		t.Fatalf("expected usage lookup, got %d calls", usage.calls)
	}

	// Anonymous buyers skip the per-user check entirely.
	anonUsage := &stubUsageCounter{count: 99}
	v = newValidator(t, &stubCouponLoader{coupon: coupon}, anonUsage)
	discount, err = v.Validate(context.Background(), "ONCE", 1000, Buyer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount == nil {
		t.Fatal("expected discount for anonymous buyer")
	}
	if anonUsage.calls != 0 {
		t.Fatalf("expected no usage lookup for anonymous buyer, got %d", anonUsage.calls)
	}
}

func TestValidate_UnknownOrBlankCodes(t *testing.T) {
	t.Parallel()

	v := newValidator(t, &stubCouponLoader{err: gorm.ErrRecordNotFound}, &stubUsageCounter{})
	discount, err := v.Validate(context.Background(), "NOPE", 1000, Buyer{})
	if err != nil {
		t.Fatalf("unknown code must not error: %v", err)
	}
	if discount != nil {
		t.Fatalf("expected no discount for unknown code, got %+v", discount)
	}

	discount, err = v.Validate(context.Background(), "   ", 1000, Buyer{})
	if err != nil || discount != nil {
		t.Fatalf("blank code should be a no-op, got %+v %v", discount, err)
	}
}

func TestValidate_DependencyFailure(t *testing.T) {
	t.Parallel()

	v := newValidator(t, &stubCouponLoader{err: errors.New("db down")}, &stubUsageCounter{})
	_, err := v.Validate(context.Background(), "SAVE10", 1000, Buyer{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
