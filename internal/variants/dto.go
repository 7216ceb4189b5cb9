package variants

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/types"
)

// VariantDTO is the variant payload returned to clients.
type VariantDTO struct {
	ID             uuid.UUID            `json:"id"`
	ProductID      uuid.UUID            `json:"product_id"`
	SKU            *string              `json:"sku,omitempty"`
	CombinationKey *string              `json:"combination_key,omitempty"`
	Attributes     types.AttributePairs `json:"attributes"`
	AttributeIndex types.AttributeIndex `json:"attribute_index"`
	LegacySizeID   *uuid.UUID           `json:"legacy_size_id,omitempty"`
	LegacyColorID  *uuid.UUID           `json:"legacy_color_id,omitempty"`
	Status         string               `json:"status"`
	Price          decimal.Decimal      `json:"price"`
	PriceOverride  *decimal.Decimal     `json:"price_override,omitempty"`
	FinalPrice     decimal.Decimal      `json:"final_price"`
	PriceResolved  bool                 `json:"price_resolved"`
	MRP            *decimal.Decimal     `json:"mrp,omitempty"`
	CostPrice      *decimal.Decimal     `json:"cost_price,omitempty"`
	InventoryID    *uuid.UUID           `json:"inventory_id,omitempty"`
	Version        int                  `json:"version"`
	IsDeleted      bool                 `json:"is_deleted"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// MatrixResult summarizes a matrix generation.
type MatrixResult struct {
	Created           []VariantDTO `json:"created"`
	SkippedDuplicates int          `json:"skipped_duplicates"`
}

// RepriceResult summarizes a re-resolution pass over unresolved prices.
type RepriceResult struct {
	Scanned    int `json:"scanned"`
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
	Failed     int `json:"failed"`
}

func mapVariantDTO(variant *models.Variant) VariantDTO {
	attrs := variant.Attributes
	if attrs == nil {
		attrs = types.AttributePairs{}
	}
	index := variant.AttributeIndex
	if index == nil {
		index = types.AttributeIndex{}
	}
	return VariantDTO{
		ID:             variant.ID,
		ProductID:      variant.ProductID,
		SKU:            variant.SKU,
		CombinationKey: variant.CombinationKey,
		Attributes:     attrs,
		AttributeIndex: index,
		LegacySizeID:   variant.LegacySizeID,
		LegacyColorID:  variant.LegacyColorID,
		Status:         string(variant.Status),
		Price:          variant.Price,
		PriceOverride:  nullDecimalPtr(variant.PriceOverride),
		FinalPrice:     variant.FinalPrice,
		PriceResolved:  variant.PriceResolved,
		MRP:            nullDecimalPtr(variant.MRP),
		CostPrice:      nullDecimalPtr(variant.CostPrice),
		Version:        variant.Version,
		IsDeleted:      variant.IsDeleted,
		CreatedAt:      variant.CreatedAt,
		UpdatedAt:      variant.UpdatedAt,
	}
}

func nullDecimalPtr(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	v := value.Decimal
	return &v
}
