package types

import "testing"

func TestVariantAttributesCanonical(t *testing.T) {
	attrs := VariantAttributes{
		{Key: "size", Value: "XL"},
		{Key: "color", Value: "red"},
	}
	if got := attrs.Canonical(); got != "size=XL;color=red" {
		t.Fatalf("unexpected canonical form %q", got)
	}

	reordered := VariantAttributes{
		{Key: "color", Value: "red"},
		{Key: "size", Value: "XL"},
	}
	if attrs.Equal(reordered) {
		t.Fatal("attribute order is part of the identity; reordered lists must differ")
	}

	padded := VariantAttributes{
		{Key: " size ", Value: " XL "},
		{Key: "color", Value: "red"},
	}
	if !attrs.Equal(padded) {
		t.Fatal("surrounding whitespace should not change the canonical form")
	}

	if got := (VariantAttributes{}).Canonical(); got != "" {
		t.Fatalf("empty attributes should canonicalize to empty string, got %q", got)
	}
}

func TestVariantAttributesLabel(t *testing.T) {
	attrs := VariantAttributes{
		{Key: "size", Value: "XL"},
		{Key: "color", Value: "red"},
	}
	if got := attrs.Label(); got != "size: XL, color: red" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestAddressMissingFields(t *testing.T) {
	addr := Address{
		FullName:   "Ada Lovelace",
		Line1:      "1 Engine Way",
		City:       "London",
		State:      "LDN",
		PostalCode: "E1 6AN",
		Country:    "gb",
	}
	if missing := addr.MissingFields(); len(missing) != 0 {
		t.Fatalf("expected complete address, missing %v", missing)
	}
	if got := addr.NormalizedCountry(); got != "GB" {
		t.Fatalf("unexpected normalized country %q", got)
	}

	addr.City = "  "
	addr.PostalCode = ""
	missing := addr.MissingFields()
	if len(missing) != 2 || missing[0] != "city" || missing[1] != "postal_code" {
		t.Fatalf("unexpected missing fields %v", missing)
	}
}
