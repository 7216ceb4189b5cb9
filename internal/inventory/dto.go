package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/types"
)

// InventoryDTO is the inventory payload returned to clients.
type InventoryDTO struct {
	ID                uuid.UUID            `json:"id"`
	VariantID         uuid.UUID            `json:"variant_id"`
	SKU               string               `json:"sku"`
	TotalStock        int                  `json:"total_stock"`
	ReservedStock     int                  `json:"reserved_stock"`
	AvailableStock    int                  `json:"available_stock"`
	Status            string               `json:"status"`
	LowStockThreshold int                  `json:"low_stock_threshold"`
	Warehouse         *string              `json:"warehouse,omitempty"`
	BinLocation       *string              `json:"bin_location,omitempty"`
	Locations         types.StockLocations `json:"locations"`
	Version           int                  `json:"version"`
	LastUpdated       time.Time            `json:"last_updated"`
	IsDeleted         bool                 `json:"is_deleted"`
	CreatedAt         time.Time            `json:"created_at"`
}

// MovementDTO is one stock ledger row.
type MovementDTO struct {
	ID             uuid.UUID `json:"id"`
	Field          string    `json:"field"`
	Delta          int       `json:"delta"`
	TotalAfter     int       `json:"total_after"`
	ReservedAfter  int       `json:"reserved_after"`
	AvailableAfter int       `json:"available_after"`
	Reason         string    `json:"reason"`
	Actor          string    `json:"actor"`
	Note           *string   `json:"note,omitempty"`
	VersionAfter   int       `json:"version_after"`
	CreatedAt      time.Time `json:"created_at"`
}

// LowStockPage is a cursor page of low-stock records.
type LowStockPage struct {
	Items      []InventoryDTO `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func mapInventoryDTO(record *models.InventoryRecord) InventoryDTO {
	locations := record.Locations
	if locations == nil {
		locations = types.StockLocations{}
	}
	return InventoryDTO{
		ID:                record.ID,
		VariantID:         record.VariantID,
		SKU:               record.SKU,
		TotalStock:        record.TotalStock,
		ReservedStock:     record.ReservedStock,
		AvailableStock:    record.AvailableStock,
		Status:            string(record.Status),
		LowStockThreshold: record.LowStockThreshold,
		Warehouse:         record.Warehouse,
		BinLocation:       record.BinLocation,
		Locations:         locations,
		Version:           record.Version,
		LastUpdated:       record.LastUpdated,
		IsDeleted:         record.IsDeleted,
		CreatedAt:         record.CreatedAt,
	}
}

func mapMovementDTO(row models.StockMovement) MovementDTO {
	return MovementDTO{
		ID:             row.ID,
		Field:          string(row.Field),
		Delta:          row.Delta,
		TotalAfter:     row.TotalAfter,
		ReservedAfter:  row.ReservedAfter,
		AvailableAfter: row.AvailableAfter,
		Reason:         string(row.Reason),
		Actor:          row.Actor,
		Note:           row.Note,
		VersionAfter:   row.VersionAfter,
		CreatedAt:      row.CreatedAt,
	}
}
