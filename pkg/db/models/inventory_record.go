package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
	"github.com/angelmondragon/catalog-backoffice/pkg/types"
)

// InventoryVariantIndex is the 1:1 backstop between variants and live inventory.
// Soft-deleted records fall outside it so a variant can be given a fresh record.
const InventoryVariantIndex = "ux_inventory_records_variant"

// InventoryRecord is the stock-of-record for exactly one variant. AvailableStock is
// derived from TotalStock and ReservedStock and persisted so it can be indexed.
type InventoryRecord struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	VariantID         uuid.UUID             `gorm:"column:variant_id;type:uuid;not null;index:ux_inventory_records_variant,unique,where:is_deleted = false"`
	SKU               string                `gorm:"column:sku;not null"`
	TotalStock        int                   `gorm:"column:total_stock;not null"`
	ReservedStock     int                   `gorm:"column:reserved_stock;not null"`
	AvailableStock    int                   `gorm:"column:available_stock;not null;index:idx_inventory_records_available"`
	Status            enums.InventoryStatus `gorm:"column:status;type:varchar(32);not null"`
	LowStockThreshold int                   `gorm:"column:low_stock_threshold;not null"`
	Warehouse         *string               `gorm:"column:warehouse"`
	BinLocation       *string               `gorm:"column:bin_location"`
	Locations         types.StockLocations  `gorm:"column:locations;type:jsonb;not null"`
	Version           int                   `gorm:"column:version;not null"`
	LastUpdated       time.Time             `gorm:"column:last_updated;not null"`
	IsDeleted         bool                  `gorm:"column:is_deleted;not null;default:false"`
	DeletedAt         *time.Time            `gorm:"column:deleted_at"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *InventoryRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	if r.Version == 0 {
		r.Version = 1
	}
	return nil
}
