package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/zalar2202/logashop/api/middleware"
	"github.com/zalar2202/logashop/api/responses"
	"github.com/zalar2202/logashop/api/validators"
	"github.com/zalar2202/logashop/internal/checkout"
	pkgerrors "github.com/zalar2202/logashop/pkg/errors"
	"github.com/zalar2202/logashop/pkg/logger"
	"github.com/zalar2202/logashop/pkg/types"
)

type checkoutService interface {
	Execute(ctx context.Context, input checkout.Input) (*checkout.Result, error)
}

type checkoutRequest struct {
	GuestEmail            string         `json:"guest_email,omitempty" validate:"omitempty,email"`
	ShippingAddress       types.Address  `json:"shipping_address" validate:"required"`
	BillingAddress        *types.Address `json:"billing_address,omitempty"`
	BillingSameAsShipping bool           `json:"billing_same_as_shipping"`
	ShippingMethod        string         `json:"shipping_method"`
	CouponCode            string         `json:"coupon_code,omitempty" validate:"omitempty,max=64"`
	CustomerNote          *string        `json:"customer_note,omitempty" validate:"omitempty,max=2000"`
}

// Checkout places an order from the caller's active cart. Works for
// both authenticated buyers and guests carrying a session id.
func Checkout(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkout.Input{
			GuestEmail:            req.GuestEmail,
			ShippingAddress:       req.ShippingAddress,
			BillingAddress:        req.BillingAddress,
			BillingSameAsShipping: req.BillingSameAsShipping,
			ShippingMethod:        req.ShippingMethod,
			CouponCode:            req.CouponCode,
			CustomerNote:          req.CustomerNote,
		}

		if rawUser := middleware.UserIDFromContext(r.Context()); rawUser != "" {
			userID, err := uuid.Parse(rawUser)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}
			input.Identity.UserID = &userID
			if email := middleware.UserEmailFromContext(r.Context()); email != "" {
				input.Identity.Email = &email
			}
		}
		if sessionID := strings.TrimSpace(middleware.SessionIDFromContext(r.Context())); sessionID != "" {
			input.SessionID = &sessionID
		}

		result, err := svc.Execute(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
