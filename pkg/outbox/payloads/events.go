package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
)

// VariantCreatedEvent is emitted when a variant row is inserted.
type VariantCreatedEvent struct {
	VariantID      uuid.UUID           `json:"variant_id"`
	ProductID      uuid.UUID           `json:"product_id"`
	SKU            *string             `json:"sku,omitempty"`
	CombinationKey *string             `json:"combination_key,omitempty"`
	Status         enums.VariantStatus `json:"status"`
	FinalPrice     decimal.Decimal     `json:"final_price"`
	PriceResolved  bool                `json:"price_resolved"`
}

// VariantUpdatedEvent is emitted after an edit re-ran the save pipeline.
type VariantUpdatedEvent struct {
	VariantID      uuid.UUID           `json:"variant_id"`
	ProductID      uuid.UUID           `json:"product_id"`
	SKU            *string             `json:"sku,omitempty"`
	CombinationKey *string             `json:"combination_key,omitempty"`
	Status         enums.VariantStatus `json:"status"`
	FinalPrice     decimal.Decimal     `json:"final_price"`
	PriceResolved  bool                `json:"price_resolved"`
	Version        int                 `json:"version"`
}

// VariantDeletedEvent is emitted on soft delete.
type VariantDeletedEvent struct {
	VariantID uuid.UUID `json:"variant_id"`
	ProductID uuid.UUID `json:"product_id"`
}

// InventoryCreatedEvent is emitted only when ensure actually inserted a record.
type InventoryCreatedEvent struct {
	InventoryID uuid.UUID `json:"inventory_id"`
	VariantID   uuid.UUID `json:"variant_id"`
	SKU         string    `json:"sku"`
	Source      string    `json:"source"`
}

// StockChangedEvent carries the deltas and the quantities after a successful mutation.
type StockChangedEvent struct {
	InventoryID    uuid.UUID                 `json:"inventory_id"`
	VariantID      uuid.UUID                 `json:"variant_id"`
	TotalDelta     int                       `json:"total_delta"`
	ReservedDelta  int                       `json:"reserved_delta"`
	TotalStock     int                       `json:"total_stock"`
	ReservedStock  int                       `json:"reserved_stock"`
	AvailableStock int                       `json:"available_stock"`
	Reason         enums.StockMovementReason `json:"reason"`
	Version        int                       `json:"version"`
}

// StockStatusChangedEvent is emitted when the derived status moves.
type StockStatusChangedEvent struct {
	InventoryID    uuid.UUID             `json:"inventory_id"`
	VariantID      uuid.UUID             `json:"variant_id"`
	PreviousStatus enums.InventoryStatus `json:"previous_status"`
	Status         enums.InventoryStatus `json:"status"`
	AvailableStock int                   `json:"available_stock"`
}
