package types

import "strings"

// VariantAttribute is a single option pair, e.g. ("size", "XL").
type VariantAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// VariantAttributes is the ordered option list of a product variant,
// stored as jsonb. Order is part of the variant identity.
type VariantAttributes []VariantAttribute

// Canonical renders the attributes as "k=v;k=v" in stored order. Two
// variants are considered the same selection iff their canonical forms
// are equal.
func (v VariantAttributes) Canonical() string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, 0, len(v))
	for _, attr := range v {
		key := strings.TrimSpace(attr.Key)
		value := strings.TrimSpace(attr.Value)
		parts = append(parts, key+"="+value)
	}
	return strings.Join(parts, ";")
}

// Label renders the attributes for display, e.g. "size: XL, color: red".
func (v VariantAttributes) Label() string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, 0, len(v))
	for _, attr := range v {
		parts = append(parts, attr.Key+": "+attr.Value)
	}
	return strings.Join(parts, ", ")
}

// Equal reports whether both lists describe the same selection.
func (v VariantAttributes) Equal(other VariantAttributes) bool {
	return v.Canonical() == other.Canonical()
}
