package checkout

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zalar2202/logashop/internal/cart"
	"github.com/zalar2202/logashop/internal/checkout/helpers"
	"github.com/zalar2202/logashop/internal/checkout/reservation"
	"github.com/zalar2202/logashop/internal/coupons"
	"github.com/zalar2202/logashop/internal/digital"
	"github.com/zalar2202/logashop/internal/notifications"
	"github.com/zalar2202/logashop/internal/orders"
	"github.com/zalar2202/logashop/internal/pricing"
	"github.com/zalar2202/logashop/internal/products"
	"github.com/zalar2202/logashop/pkg/db/models"
	"github.com/zalar2202/logashop/pkg/enums"
	pkgerrors "github.com/zalar2202/logashop/pkg/errors"
	"github.com/zalar2202/logashop/pkg/logger"
	"github.com/zalar2202/logashop/pkg/metrics"
	"github.com/zalar2202/logashop/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	OrderConfirmed(ctx context.Context, order *models.Order)
	DigitalDeliveryReady(ctx context.Context, order *models.Order, grants []models.DigitalDelivery)
	LowStock(ctx context.Context, items []notifications.LowStockItem)
}

// Identity is the optional authenticated buyer extracted from the
// request.
type Identity struct {
	UserID *uuid.UUID
	Email  *string
}

// Input is everything the checkout endpoint accepts.
type Input struct {
	Identity              Identity
	SessionID             *string
	GuestEmail            string
	ShippingAddress       types.Address
	BillingAddress        *types.Address
	BillingSameAsShipping bool
	ShippingMethod        string
	CouponCode            string
	CustomerNote          *string
}

// Result is the slim confirmation payload returned to the buyer.
type Result struct {
	OrderID      uuid.UUID         `json:"order_id"`
	OrderNumber  string            `json:"order_number"`
	TrackingCode string            `json:"tracking_code"`
	TotalCents   int               `json:"total_cents"`
	Status       enums.OrderStatus `json:"status"`
}

// Service runs the whole checkout: validation, snapshotting, pricing,
// and the single transaction that creates the order, takes stock,
// redeems the coupon, grants digital downloads, and empties the cart.
type Service struct {
	tx                txRunner
	carts             *cart.Repository
	productsRepo      *products.Repository
	ordersRepo        *orders.Repository
	couponsRepo       *coupons.Repository
	digitalRepo       *digital.Repository
	resolver          *Resolver
	engine            *pricing.Engine
	notifier          notifier
	metrics           *metrics.CheckoutMetrics
	logg              *logger.Logger
	lowStockThreshold int
	now               func() time.Time
}

// Config carries the tunables the orchestrator needs.
type Config struct {
	LowStockThreshold int
}

// NewService builds the checkout orchestrator.
func NewService(
	tx txRunner,
	carts *cart.Repository,
	productsRepo *products.Repository,
	ordersRepo *orders.Repository,
	couponsRepo *coupons.Repository,
	digitalRepo *digital.Repository,
	resolver *Resolver,
	engine *pricing.Engine,
	dispatcher notifier,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
	cfg Config,
) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if couponsRepo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	if digitalRepo == nil {
		return nil, fmt.Errorf("digital deliveries repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("cart resolver required")
	}
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.LowStockThreshold < 0 {
		cfg.LowStockThreshold = 0
	}
	return &Service{
		tx:                tx,
		carts:             carts,
		productsRepo:      productsRepo,
		ordersRepo:        ordersRepo,
		couponsRepo:       couponsRepo,
		digitalRepo:       digitalRepo,
		resolver:          resolver,
		engine:            engine,
		notifier:          dispatcher,
		metrics:           checkoutMetrics,
		logg:              logg,
		lowStockThreshold: cfg.LowStockThreshold,
		now:               time.Now,
	}, nil
}

// Execute places an order. Validation, cart resolution, and pricing run
// first and abort with no side effects; order creation, stock
// reservation, coupon redemption, digital grants, and the cart wipe
// share one transaction. Notifications fire after commit and never fail
// the call.
func (s *Service) Execute(ctx context.Context, input Input) (*Result, error) {
	started := s.now()

	result, grants, lowStock, order, err := s.execute(ctx, input)
	s.metrics.ObserveDuration(outcomeLabel(err), s.now().Sub(started))
	if err != nil {
		return nil, err
	}
	s.metrics.IncOrderCreated(result.TotalCents)

	ctx = s.logg.WithOrderID(ctx, result.OrderID.String())
	s.logg.Info(ctx, "order created")

	s.notifier.OrderConfirmed(ctx, order)
	s.notifier.DigitalDeliveryReady(ctx, order, grants)
	s.notifier.LowStock(ctx, lowStock)

	return result, nil
}

func (s *Service) execute(ctx context.Context, input Input) (*Result, []models.DigitalDelivery, []notifications.LowStockItem, *models.Order, error) {
	shipping, err := helpers.ValidateShippingAddress(input.ShippingAddress)
	if err != nil {
		return s.fail("validate", err)
	}
	billing, err := helpers.ResolveBillingAddress(shipping, input.BillingAddress, input.BillingSameAsShipping)
	if err != nil {
		return s.fail("validate", err)
	}

	var guestEmail *string
	if input.Identity.UserID == nil {
		email, err := helpers.ValidateGuestEmail(input.GuestEmail)
		if err != nil {
			return s.fail("validate", err)
		}
		guestEmail = &email
	}

	record, err := s.loadCart(ctx, input)
	if err != nil {
		return s.fail("validate", err)
	}

	resolved, err := s.resolver.Resolve(ctx, record.Items)
	if err != nil {
		return s.fail("resolve", err)
	}

	allDigital := true
	lineItems := make([]pricing.LineItem, len(resolved))
	for i, line := range resolved {
		lineItems[i] = pricing.LineItem{LineTotalCents: line.LineTotalCents}
		if line.ProductType != enums.ProductTypeDigital {
			allDigital = false
		}
	}

	buyer := coupons.Buyer{UserID: input.Identity.UserID, GuestEmail: guestEmail}
	quote, err := s.engine.Price(ctx, lineItems, shipping, input.ShippingMethod, input.CouponCode, allDigital, buyer)
	if err != nil {
		return s.fail("price", err)
	}

	var (
		order   *models.Order
		grants  []models.DigitalDelivery
		alerts  []notifications.LowStockItem
		created *Result
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		quote := *quote
		if quote.Discount != nil {
			redeemed, err := s.couponsRepo.WithTx(tx).IncrementUsage(ctx, quote.Discount.CouponID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem coupon")
			}
			if !redeemed {
				// Another checkout consumed the last redemption since
				// validation; proceed at full price.
				s.logg.Warn(s.logg.WithField(ctx, "coupon", quote.Discount.Code), "coupon exhausted during checkout, discount dropped")
				quote.Discount = nil
				quote.DiscountCents = 0
				quote.TotalCents = quote.SubtotalCents + quote.ShippingCents + quote.TaxCents
			}
		}

		order, err = s.buildOrder(input, shipping, billing, guestEmail, resolved, &quote)
		if err != nil {
			return err
		}
		if _, err := s.ordersRepo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		results, err := s.reserveStock(ctx, tx, order, resolved)
		if err != nil {
			return err
		}
		alerts = s.collectLowStock(resolved, results)

		for _, line := range resolved {
			if line.VariantID == nil {
				if err := s.productsRepo.WithTx(tx).IncrementTotalSold(ctx, line.ProductID, line.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment total sold")
				}
			}
		}

		grants, err = s.createDigitalGrants(ctx, tx, order, resolved, guestEmail)
		if err != nil {
			return err
		}

		if err := s.carts.WithTx(tx).ClearItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return s.fail("persist", err)
	}

	created = &Result{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		TrackingCode: order.TrackingCode,
		TotalCents:   order.TotalCents,
		Status:       order.Status,
	}
	return created, grants, alerts, order, nil
}

func (s *Service) fail(stage string, err error) (*Result, []models.DigitalDelivery, []notifications.LowStockItem, *models.Order, error) {
	s.metrics.IncFailure(stage)
	return nil, nil, nil, nil, err
}

func (s *Service) loadCart(ctx context.Context, input Input) (*models.Cart, error) {
	var (
		record *models.Cart
		err    error
	)
	switch {
	case input.Identity.UserID != nil:
		record, err = s.carts.FindActiveByUser(ctx, *input.Identity.UserID)
	case input.SessionID != nil:
		record, err = s.carts.FindActiveBySession(ctx, *input.SessionID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
	}
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
	}
	return record, nil
}

func (s *Service) buildOrder(input Input, shipping, billing types.Address, guestEmail *string, resolved []ResolvedItem, quote *pricing.Quote) (*models.Order, error) {
	now := s.now().UTC()
	number, err := orders.NewOrderNumber(now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}
	tracking, err := orders.NewTrackingCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate tracking code")
	}

	order := &models.Order{
		ID:                  uuid.New(),
		OrderNumber:         number,
		UserID:              input.Identity.UserID,
		GuestEmail:          guestEmail,
		SessionID:           input.SessionID,
		Status:              enums.OrderStatusPendingPayment,
		PaymentStatus:       enums.PaymentStatusPending,
		SubtotalCents:       quote.SubtotalCents,
		ShippingCents:       quote.ShippingCents,
		TaxCents:            quote.TaxCents,
		DiscountCents:       quote.DiscountCents,
		TotalCents:          quote.TotalCents,
		ShippingMethodID:    quote.ShippingMethodID,
		ShippingMethodLabel: quote.ShippingMethodLabel,
		ShippingAddress:     shipping,
		BillingAddress:      billing,
		CustomerNote:        input.CustomerNote,
		TrackingCode:        tracking,
	}
	if quote.Discount != nil {
		order.CouponCode = &quote.Discount.Code
		order.Discount = &types.AppliedDiscount{
			Code:        quote.Discount.Code,
			Type:        quote.Discount.Type.String(),
			Value:       int64(quote.Discount.Value),
			AmountCents: int64(quote.Discount.AmountCents),
		}
	}

	order.Items = make([]models.OrderItem, len(resolved))
	for i, line := range resolved {
		order.Items[i] = models.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			Name:           line.Name,
			Slug:           line.Slug,
			SKU:            line.SKU,
			ImageURL:       line.ImageURL,
			Attributes:     line.Attributes,
			ProductType:    line.ProductType,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: line.LineTotalCents,
		}
	}
	return order, nil
}

func (s *Service) reserveStock(ctx context.Context, tx *gorm.DB, order *models.Order, resolved []ResolvedItem) ([]reservation.StockReservationResult, error) {
	requests := make([]reservation.StockReservationRequest, len(resolved))
	for i, line := range resolved {
		request := reservation.StockReservationRequest{
			OrderItemID:    order.Items[i].ID,
			ProductID:      line.ProductID,
			Qty:            line.Quantity,
			TrackInventory: line.TrackInventory,
			AllowBackorder: line.AllowBackorder,
		}
		if line.VariantTracksStock {
			request.VariantID = line.VariantID
		}
		requests[i] = request
	}

	results, err := reservation.ReserveStock(ctx, tx, requests)
	if err != nil {
		return nil, err
	}
	for i, result := range results {
		if !result.Reserved {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("%s went out of stock during checkout", resolved[i].Name))
		}
	}
	return results, nil
}

func (s *Service) collectLowStock(resolved []ResolvedItem, results []reservation.StockReservationResult) []notifications.LowStockItem {
	var alerts []notifications.LowStockItem
	for i, result := range results {
		if result.RemainingStock == nil || *result.RemainingStock > s.lowStockThreshold {
			continue
		}
		name := resolved[i].Name
		if label := resolved[i].Attributes.Label(); label != "" {
			name = name + " (" + label + ")"
		}
		alerts = append(alerts, notifications.LowStockItem{
			Name:  name,
			SKU:   resolved[i].SKU,
			Stock: *result.RemainingStock,
		})
	}
	return alerts
}

func (s *Service) createDigitalGrants(ctx context.Context, tx *gorm.DB, order *models.Order, resolved []ResolvedItem, guestEmail *string) ([]models.DigitalDelivery, error) {
	owner := digital.Owner{UserID: order.UserID, GuestEmail: guestEmail}

	var grants []models.DigitalDelivery
	repo := s.digitalRepo.WithTx(tx)
	for i, line := range resolved {
		if line.ProductType != enums.ProductTypeDigital {
			continue
		}
		if line.DigitalFile == nil {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", line.ProductID.String()),
				"digital product has no file descriptor, grant skipped")
			continue
		}
		grant, err := digital.BuildGrant(order.ID, order.Items[i].ID, line.ProductID, owner, *line.DigitalFile, s.now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build digital grant")
		}
		if err := repo.Create(ctx, grant); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create digital grant")
		}
		grants = append(grants, *grant)
	}
	return grants, nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	return "failure"
}
