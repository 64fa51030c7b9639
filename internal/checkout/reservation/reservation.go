package reservation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zalar2202/logashop/pkg/db/models"
	pkgerrors "github.com/zalar2202/logashop/pkg/errors"
)

// StockReservationRequest asks for one line's quantity to be taken from
// inventory. VariantID is set only when the variant tracks its own
// stock; otherwise the product-level counter is decremented.
type StockReservationRequest struct {
	OrderItemID    uuid.UUID
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	Qty            int
	TrackInventory bool
	AllowBackorder bool
}

// StockReservationResult reports the per-line outcome. Reserved lines
// carry the post-decrement stock so callers can raise low-stock alerts.
type StockReservationResult struct {
	OrderItemID    uuid.UUID
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	Reserved       bool
	Reason         string
	RemainingStock *int
}

// ReserveStock decrements inventory for every request inside the
// caller's transaction. The decrement is conditional, so two concurrent
// checkouts can never both take the last unit of a non-backorder
// product; the loser gets Reserved=false with a reason instead of an
// error. Products that do not track inventory are reserved without
// touching any counter.
func ReserveStock(ctx context.Context, tx *gorm.DB, requests []StockReservationRequest) ([]StockReservationResult, error) {
	for _, request := range requests {
		if request.Qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be at least 1")
		}
	}

	results := make([]StockReservationResult, 0, len(requests))
	for _, request := range requests {
		result := StockReservationResult{
			OrderItemID: request.OrderItemID,
			ProductID:   request.ProductID,
			VariantID:   request.VariantID,
		}

		if !request.TrackInventory {
			result.Reserved = true
			results = append(results, result)
			continue
		}

		reserved, remaining, err := decrement(ctx, tx, request)
		if err != nil {
			return nil, err
		}
		result.Reserved = reserved
		if reserved {
			result.RemainingStock = &remaining
		} else {
			result.Reason = "insufficient stock"
		}
		results = append(results, result)
	}
	return results, nil
}

func decrement(ctx context.Context, tx *gorm.DB, request StockReservationRequest) (bool, int, error) {
	query := tx.WithContext(ctx)
	if request.VariantID != nil {
		query = query.Model(&models.ProductVariant{}).Where("id = ?", *request.VariantID)
	} else {
		query = query.Model(&models.Product{}).Where("id = ?", request.ProductID)
	}
	if !request.AllowBackorder {
		query = query.Where("stock >= ?", request.Qty)
	}

	update := query.UpdateColumn("stock", gorm.Expr("stock - ?", request.Qty))
	if update.Error != nil {
		return false, 0, update.Error
	}
	if update.RowsAffected == 0 {
		return false, 0, nil
	}

	remaining, err := readStock(ctx, tx, request)
	if err != nil {
		return false, 0, err
	}
	return true, remaining, nil
}

func readStock(ctx context.Context, tx *gorm.DB, request StockReservationRequest) (int, error) {
	var stock int
	query := tx.WithContext(ctx)
	if request.VariantID != nil {
		query = query.Model(&models.ProductVariant{}).Where("id = ?", *request.VariantID)
	} else {
		query = query.Model(&models.Product{}).Where("id = ?", request.ProductID)
	}
	if err := query.Select("stock").Scan(&stock).Error; err != nil {
		return 0, err
	}
	return stock, nil
}
