package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zalar2202/logashop/pkg/db/models"
	"github.com/zalar2202/logashop/pkg/enums"
	"github.com/zalar2202/logashop/pkg/pagination"
)

// Repository persists orders and answers the queries checkout and the
// order history endpoints need.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the order together with its line items.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser returns the user's orders newest first, with a cursor to
// the next page when more exist.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Where("user_id = ?", userID)
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	if len(orders) > normalized {
		next := orders[normalized]
		orders = orders[:normalized]
		return orders, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return orders, nil, nil
}

// FindByIDForBuyer loads an order only when the caller owns it, either
// as the authenticated user or via the guest session that placed it.
func (r *Repository) FindByIDForBuyer(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID, sessionID *string) (*models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID)
	switch {
	case userID != nil:
		query = query.Where("user_id = ?", *userID)
	case sessionID != nil:
		query = query.Where("session_id = ?", *sessionID)
	default:
		return nil, gorm.ErrRecordNotFound
	}

	var order models.Order
	if err := query.First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByTrackingCode loads an order by its public tracking code.
func (r *Repository) FindByTrackingCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tracking_code = ?", code).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CountCouponUsage counts the buyer's prior orders redeeming the code.
// Cancelled and refunded orders hand the allowance back.
func (r *Repository) CountCouponUsage(ctx context.Context, code string, userID *uuid.UUID, guestEmail *string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("coupon_code = ?", code).
		Where("status NOT IN ?", []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusRefunded})
	switch {
	case userID != nil:
		query = query.Where("user_id = ?", *userID)
	case guestEmail != nil:
		query = query.Where("guest_email = ?", *guestEmail)
	default:
		return 0, nil
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
