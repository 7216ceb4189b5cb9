package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
)

// StockMovement is an append-only ledger row written with every stock mutation.
type StockMovement struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	InventoryID    uuid.UUID                 `gorm:"column:inventory_id;type:uuid;not null;index:idx_stock_movements_inventory_created,priority:1"`
	VariantID      uuid.UUID                 `gorm:"column:variant_id;type:uuid;not null"`
	Field          enums.StockField          `gorm:"column:field;type:varchar(16);not null"`
	Delta          int                       `gorm:"column:delta;not null"`
	TotalAfter     int                       `gorm:"column:total_after;not null"`
	ReservedAfter  int                       `gorm:"column:reserved_after;not null"`
	AvailableAfter int                       `gorm:"column:available_after;not null"`
	Reason         enums.StockMovementReason `gorm:"column:reason;type:varchar(32);not null"`
	Actor          string                    `gorm:"column:actor;not null"`
	Note           *string                   `gorm:"column:note"`
	VersionAfter   int                       `gorm:"column:version_after;not null"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime;index:idx_stock_movements_inventory_created,priority:2"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
