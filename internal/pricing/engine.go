package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zalar2202/logashop/internal/coupons"
	"github.com/zalar2202/logashop/pkg/db/models"
	"github.com/zalar2202/logashop/pkg/logger"
	"github.com/zalar2202/logashop/pkg/types"
)

type zoneFinder interface {
	FindZoneForAddress(ctx context.Context, country, state string) (*models.ShippingZone, error)
}

type discountValidator interface {
	Validate(ctx context.Context, code string, subtotalCents int, buyer coupons.Buyer) (*coupons.Discount, error)
}

// LineItem carries the only pricing-relevant facts of a resolved cart
// line.
type LineItem struct {
	LineTotalCents int
}

// Quote is the full price breakdown for a checkout attempt.
type Quote struct {
	SubtotalCents       int
	ShippingCents       int
	ShippingMethodID    string
	ShippingMethodLabel string
	TaxCents            int
	DiscountCents       int
	Discount            *coupons.Discount
	TotalCents          int
}

const (
	digitalMethodID    = "digital"
	digitalMethodLabel = "Digital Delivery (Email)"

	// Flat-rate fallback used when no shipping zone covers the address.
	legacyStandardCents          = 499
	legacyExpressCents           = 999
	legacyOvernightCents         = 1999
	legacyFreeStandardAboveCents = 5000
)

var taxRate = decimal.RequireFromString("0.085")

// Engine prices a resolved cart. Price never writes anything; the same
// inputs always produce the same quote.
type Engine struct {
	zones   zoneFinder
	coupons discountValidator
	logg    *logger.Logger
}

// NewEngine builds the pricing engine.
func NewEngine(zones zoneFinder, coupons discountValidator, logg *logger.Logger) (*Engine, error) {
	if zones == nil {
		return nil, fmt.Errorf("zone finder required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("discount validator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Engine{zones: zones, coupons: coupons, logg: logg}, nil
}

// Price computes subtotal, shipping, tax, discount, and total for the
// given line items. Shipping comes from the matched zone's methods, or
// from the legacy flat-rate table when no zone covers the address.
// All-digital carts ship for free via the synthetic digital method no
// matter what was requested.
func (e *Engine) Price(ctx context.Context, items []LineItem, address types.Address, methodCode, couponCode string, allDigital bool, buyer coupons.Buyer) (*Quote, error) {
	subtotal := 0
	for _, item := range items {
		subtotal += item.LineTotalCents
	}

	quote := &Quote{SubtotalCents: subtotal}

	if allDigital {
		quote.ShippingCents = 0
		quote.ShippingMethodID = digitalMethodID
		quote.ShippingMethodLabel = digitalMethodLabel
	} else {
		cost, id, label, err := e.resolveShipping(ctx, subtotal, address, methodCode)
		if err != nil {
			return nil, err
		}
		quote.ShippingCents = cost
		quote.ShippingMethodID = id
		quote.ShippingMethodLabel = label
	}

	quote.TaxCents = taxAmount(subtotal)

	discount, err := e.coupons.Validate(ctx, couponCode, subtotal, buyer)
	if err != nil {
		return nil, err
	}
	if discount != nil {
		quote.Discount = discount
		quote.DiscountCents = discount.AmountCents
	}

	total := subtotal + quote.ShippingCents + quote.TaxCents - quote.DiscountCents
	if total < 0 {
		total = 0
	}
	quote.TotalCents = total

	return quote, nil
}

func (e *Engine) resolveShipping(ctx context.Context, subtotalCents int, address types.Address, methodCode string) (int, string, string, error) {
	requested := strings.ToLower(strings.TrimSpace(methodCode))

	zone, err := e.zones.FindZoneForAddress(ctx, address.NormalizedCountry(), address.NormalizedState())
	if err != nil {
		return 0, "", "", err
	}
	if zone != nil {
		if method := pickZoneMethod(zone, requested); method != nil {
			cost, label := methodRate(method, subtotalCents)
			return cost, method.Code, label, nil
		}
		// Zone exists but carries no active methods; rate it like an
		// unconfigured address.
		ctx = e.logg.WithFields(ctx, map[string]any{"zone": zone.Name})
		e.logg.Warn(ctx, "shipping zone has no active methods, using fallback rates")
	}

	cost, id, label := legacyRate(requested, subtotalCents)
	return cost, id, label, nil
}

// pickZoneMethod returns the zone's active method matching the
// requested code, or the first active method when the request names
// nothing usable.
func pickZoneMethod(zone *models.ShippingZone, requested string) *models.ShippingMethod {
	var first *models.ShippingMethod
	for i := range zone.Methods {
		method := &zone.Methods[i]
		if !method.IsActive {
			continue
		}
		if method.Code == requested {
			return method
		}
		if first == nil {
			first = method
		}
	}
	return first
}

func methodRate(method *models.ShippingMethod, subtotalCents int) (int, string) {
	if method.FreeAt(subtotalCents) {
		return 0, "Free " + method.Label
	}
	return method.PriceCents, method.Label
}

func legacyRate(requested string, subtotalCents int) (int, string, string) {
	switch requested {
	case "express":
		return legacyExpressCents, "express", "Express Shipping"
	case "overnight":
		return legacyOvernightCents, "overnight", "Overnight Shipping"
	case "pickup":
		return 0, "pickup", "Local Pickup"
	case "standard", "":
		if subtotalCents >= legacyFreeStandardAboveCents {
			return 0, "standard", "Free Standard Shipping"
		}
		return legacyStandardCents, "standard", "Standard Shipping"
	default:
		return legacyStandardCents, requested, "Standard Shipping"
	}
}

// taxAmount applies the flat 8.5% rate to the subtotal, rounding half
// away from zero to whole cents.
func taxAmount(subtotalCents int) int {
	return int(decimal.NewFromInt(int64(subtotalCents)).Mul(taxRate).Round(0).IntPart())
}
