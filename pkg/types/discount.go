package types

// AppliedDiscount is the coupon snapshot stored on orders as jsonb.
type AppliedDiscount struct {
	Code        string `json:"code"`
	Type        string `json:"type"`
	Value       int64  `json:"value"`
	AmountCents int64  `json:"amount_cents"`
}
