package helpers

import (
	"net/mail"
	"strings"

	pkgerrors "github.com/zalar2202/logashop/pkg/errors"
	"github.com/zalar2202/logashop/pkg/types"
)

// ValidateShippingAddress ensures every mandatory address field is
// present after trimming and returns the normalized copy.
func ValidateShippingAddress(address types.Address) (types.Address, error) {
	normalized := normalizeAddress(address)
	if missing := normalized.MissingFields(); len(missing) > 0 {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is missing required fields").
			WithDetails(map[string]any{"missing": missing})
	}
	return normalized, nil
}

// ResolveBillingAddress returns the billing address the order should
// carry: the shipping address when the buyer asked to mirror it, or the
// validated separate billing address otherwise.
func ResolveBillingAddress(shipping types.Address, billing *types.Address, sameAsShipping bool) (types.Address, error) {
	if sameAsShipping || billing == nil {
		return shipping, nil
	}
	normalized := normalizeAddress(*billing)
	if missing := normalized.MissingFields(); len(missing) > 0 {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "billing address is missing required fields").
			WithDetails(map[string]any{"missing": missing})
	}
	return normalized, nil
}

// ValidateGuestEmail requires a parseable email for unauthenticated
// checkouts and returns it lower-cased.
func ValidateGuestEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "guest email is required")
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "guest email is invalid")
	}
	return trimmed, nil
}

func normalizeAddress(address types.Address) types.Address {
	normalized := types.Address{
		FullName:   strings.TrimSpace(address.FullName),
		Line1:      strings.TrimSpace(address.Line1),
		City:       strings.TrimSpace(address.City),
		State:      address.NormalizedState(),
		PostalCode: strings.TrimSpace(address.PostalCode),
		Country:    address.NormalizedCountry(),
	}
	if address.Line2 != nil {
		if line2 := strings.TrimSpace(*address.Line2); line2 != "" {
			normalized.Line2 = &line2
		}
	}
	if address.Phone != nil {
		if phone := strings.TrimSpace(*address.Phone); phone != "" {
			normalized.Phone = &phone
		}
	}
	return normalized
}
