package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zalar2202/logashop/api/middleware"
	"github.com/zalar2202/logashop/api/responses"
	"github.com/zalar2202/logashop/pkg/db/models"
	pkgerrors "github.com/zalar2202/logashop/pkg/errors"
	"github.com/zalar2202/logashop/pkg/logger"
	"github.com/zalar2202/logashop/pkg/pagination"
)

type ordersReader interface {
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
	FindByIDForBuyer(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID, sessionID *string) (*models.Order, error)
	FindByTrackingCode(ctx context.Context, code string) (*models.Order, error)
}

type orderListResponse struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}

// trackingResponse is the deliberately slim public view of an order.
// Anyone holding a tracking code can call the endpoint, so no
// addresses or line items leak through it.
type trackingResponse struct {
	OrderNumber   string    `json:"order_number"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	PlacedAt      time.Time `json:"placed_at"`
}

// ListOrders returns the authenticated buyer's order history.
func ListOrders(repo ordersReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{}
		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			params.Limit = value
		}
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		items, next, err := repo.ListByUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders"))
			return
		}

		resp := orderListResponse{Items: items}
		if next != nil {
			resp.Cursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, resp)
	}
}

// GetOrder returns one order owned by the caller, matched either by
// the authenticated user id or by the guest session id.
func GetOrder(repo ordersReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var userID *uuid.UUID
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}
			userID = &parsed
		}
		var sessionID *string
		if raw := strings.TrimSpace(middleware.SessionIDFromContext(r.Context())); raw != "" {
			sessionID = &raw
		}
		if userID == nil && sessionID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		order, err := repo.FindByIDForBuyer(r.Context(), orderID, userID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, mapOrderLookupError(err))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// TrackOrder is the public tracking lookup.
func TrackOrder(repo ordersReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "trackingCode"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tracking code required"))
			return
		}

		order, err := repo.FindByTrackingCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, mapOrderLookupError(err))
			return
		}

		responses.WriteSuccess(w, trackingResponse{
			OrderNumber:   order.OrderNumber,
			Status:        string(order.Status),
			PaymentStatus: string(order.PaymentStatus),
			PlacedAt:      order.CreatedAt,
		})
	}
}

func requireUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

func mapOrderLookupError(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
