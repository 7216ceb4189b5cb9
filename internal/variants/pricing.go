package variants

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// PriceModifier is the pricing part of an attribute value.
type PriceModifier struct {
	Type  enums.PriceModifierType
	Value decimal.Decimal
}

// PriceResolution is the outcome of ResolvePrice. Resolved is false when the
// modifiers were not available and Price is only the base price; such a variant
// must be re-priced once its attribute values can be loaded.
type PriceResolution struct {
	Price    decimal.Decimal
	Resolved bool
}

// ResolvePrice applies, in order: an explicit override (zero included), then the
// base price plus fixed modifiers plus percentage modifiers taken on the base only.
// A nil modifiers slice means the modifiers were not loaded; an empty one means none apply.
func ResolvePrice(base decimal.Decimal, override decimal.NullDecimal, modifiers []PriceModifier) PriceResolution {
	if override.Valid {
		return PriceResolution{Price: override.Decimal, Resolved: true}
	}
	if modifiers == nil {
		return PriceResolution{Price: base, Resolved: false}
	}

	fixedTotal := decimal.Zero
	percentTotal := decimal.Zero
	for _, modifier := range modifiers {
		switch modifier.Type {
		case enums.PriceModifierFixed:
			fixedTotal = fixedTotal.Add(modifier.Value)
		case enums.PriceModifierPercentage:
			percentTotal = percentTotal.Add(modifier.Value)
		}
	}

	percentageAmount := base.Mul(percentTotal).Div(hundred)
	return PriceResolution{
		Price:    base.Add(fixedTotal).Add(percentageAmount),
		Resolved: true,
	}
}

// modifiersFromValues collects the modifiers carried by the given attribute values.
// Values without a modifier type contribute nothing.
func modifiersFromValues(values []models.AttributeValue) []PriceModifier {
	modifiers := make([]PriceModifier, 0, len(values))
	for _, value := range values {
		if value.ModifierType == nil || !value.ModifierType.IsValid() {
			continue
		}
		modifiers = append(modifiers, PriceModifier{Type: *value.ModifierType, Value: value.ModifierValue})
	}
	return modifiers
}
