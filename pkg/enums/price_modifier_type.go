package enums

import "fmt"

// PriceModifierType describes how an attribute value adjusts the base price.
type PriceModifierType string

const (
	PriceModifierFixed      PriceModifierType = "fixed"
	PriceModifierPercentage PriceModifierType = "percentage"
)

var validPriceModifierTypes = []PriceModifierType{
	PriceModifierFixed,
	PriceModifierPercentage,
}

// IsValid reports whether the value is a known PriceModifierType.
func (t PriceModifierType) IsValid() bool {
	for _, candidate := range validPriceModifierTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePriceModifierType converts raw input into a PriceModifierType.
func ParsePriceModifierType(value string) (PriceModifierType, error) {
	for _, candidate := range validPriceModifierTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price modifier type %q", value)
}
