package enums

import (
	"fmt"
	"strings"
)

// VariantStatus is the lifecycle state of a sellable variant.
type VariantStatus string

const (
	VariantStatusDraft      VariantStatus = "draft"
	VariantStatusActive     VariantStatus = "active"
	VariantStatusOutOfStock VariantStatus = "out_of_stock"
	VariantStatusArchived   VariantStatus = "archived"
)

var validVariantStatuses = []VariantStatus{
	VariantStatusDraft,
	VariantStatusActive,
	VariantStatusOutOfStock,
	VariantStatusArchived,
}

// String implements fmt.Stringer.
func (s VariantStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known VariantStatus.
func (s VariantStatus) IsValid() bool {
	for _, candidate := range validVariantStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseVariantStatus converts raw input into a VariantStatus. The legacy boolean
// spellings map true to active and false to archived.
func ParseVariantStatus(value string) (VariantStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "true":
		return VariantStatusFromLegacy(true), nil
	case "false":
		return VariantStatusFromLegacy(false), nil
	}
	for _, candidate := range validVariantStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid variant status %q", value)
}

// VariantStatusFromLegacy maps the old boolean is_active flag.
func VariantStatusFromLegacy(active bool) VariantStatus {
	if active {
		return VariantStatusActive
	}
	return VariantStatusArchived
}
