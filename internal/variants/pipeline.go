package variants

import (
	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
	pkgerrors "github.com/angelmondragon/catalog-backoffice/pkg/errors"
)

// applySavePipeline runs before every insert or update of a variant, in a fixed
// order: attribute index, combination key, status normalization, price.
// modifiers follows the ResolvePrice convention (nil means unavailable).
func applySavePipeline(variant *models.Variant, legacyActive *bool, modifiers []PriceModifier) error {
	variant.AttributeIndex = BuildAttributeIndex(variant.Attributes, variant.LegacySizeID, variant.LegacyColorID)
	variant.CombinationKey = BuildCombinationKey(variant.ProductID, variant.Attributes, variant.LegacySizeID, variant.LegacyColorID)

	status, err := normalizeStatus(variant.Status, legacyActive)
	if err != nil {
		return err
	}
	variant.Status = status

	resolution := ResolvePrice(variant.Price, variant.PriceOverride, modifiers)
	variant.FinalPrice = resolution.Price
	variant.IndexedPrice = resolution.Price
	variant.PriceResolved = resolution.Resolved
	return nil
}

func normalizeStatus(current enums.VariantStatus, legacyActive *bool) (enums.VariantStatus, error) {
	if legacyActive != nil {
		return enums.VariantStatusFromLegacy(*legacyActive), nil
	}
	if current == "" {
		return enums.VariantStatusDraft, nil
	}
	status, err := enums.ParseVariantStatus(string(current))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant status")
	}
	return status, nil
}
