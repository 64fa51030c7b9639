package types

import "strings"

// Address is the postal address snapshot stored on orders as jsonb.
type Address struct {
	FullName   string  `json:"full_name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
}

// NormalizedCountry returns the trimmed upper-case country code.
func (a Address) NormalizedCountry() string {
	return strings.ToUpper(strings.TrimSpace(a.Country))
}

// NormalizedState returns the trimmed upper-case state or province code.
func (a Address) NormalizedState() string {
	return strings.ToUpper(strings.TrimSpace(a.State))
}

// MissingFields lists the required address fields that are blank.
func (a Address) MissingFields() []string {
	missing := []string{}
	checks := []struct {
		name  string
		value string
	}{
		{"full_name", a.FullName},
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
	}
	for _, check := range checks {
		if strings.TrimSpace(check.value) == "" {
			missing = append(missing, check.name)
		}
	}
	return missing
}
