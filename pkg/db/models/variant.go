package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
	"github.com/angelmondragon/catalog-backoffice/pkg/types"
)

// Unique index names shared with the SQL migrations.
const (
	VariantCombinationIndex = "ux_variants_product_combination"
	VariantSKUIndex         = "ux_variants_sku"
)

// Variant is a sellable configuration of a product. Stock lives on InventoryRecord.
type Variant struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index:ux_variants_product_combination,unique,where:is_deleted = false,priority:1"`
	SKU            *string              `gorm:"column:sku;index:ux_variants_sku,unique,where:is_deleted = false"`
	CombinationKey *string              `gorm:"column:combination_key;type:varchar(64);index:ux_variants_product_combination,unique,where:is_deleted = false,priority:2"`
	Attributes     types.AttributePairs `gorm:"column:attributes;type:jsonb;not null"`
	AttributeIndex types.AttributeIndex `gorm:"column:attribute_index;type:jsonb;not null"`
	LegacySizeID   *uuid.UUID           `gorm:"column:legacy_size_id;type:uuid"`
	LegacyColorID  *uuid.UUID           `gorm:"column:legacy_color_id;type:uuid"`
	Status         enums.VariantStatus  `gorm:"column:status;type:varchar(32);not null"`
	Price          decimal.Decimal      `gorm:"column:price;type:numeric(12,2);not null"`
	PriceOverride  decimal.NullDecimal  `gorm:"column:price_override;type:numeric(12,2)"`
	FinalPrice     decimal.Decimal      `gorm:"column:final_price;type:numeric(12,2);not null"`
	IndexedPrice   decimal.Decimal      `gorm:"column:indexed_price;type:numeric(12,2);not null;index:idx_variants_indexed_price"`
	PriceResolved  bool                 `gorm:"column:price_resolved;not null"`
	MRP            decimal.NullDecimal  `gorm:"column:mrp;type:numeric(12,2)"`
	CostPrice      decimal.NullDecimal  `gorm:"column:cost_price;type:numeric(12,2)"`
	Version        int                  `gorm:"column:version;not null"`
	IsDeleted      bool                 `gorm:"column:is_deleted;not null;default:false"`
	DeletedAt      *time.Time           `gorm:"column:deleted_at"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *Variant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	if v.Version == 0 {
		v.Version = 1
	}
	return nil
}
