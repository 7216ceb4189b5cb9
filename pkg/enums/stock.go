package enums

import "fmt"

// StockField names the inventory quantity a delta applies to.
type StockField string

const (
	StockFieldTotal    StockField = "total"
	StockFieldReserved StockField = "reserved"
)

// IsValid reports whether the value is a known StockField.
func (f StockField) IsValid() bool {
	return f == StockFieldTotal || f == StockFieldReserved
}

// StockMovementReason classifies ledger rows.
type StockMovementReason string

const (
	StockReasonReservation StockMovementReason = "reservation"
	StockReasonRelease     StockMovementReason = "release"
	StockReasonReceipt     StockMovementReason = "receipt"
	StockReasonAdjustment  StockMovementReason = "adjustment"
	StockReasonSale        StockMovementReason = "sale"
	StockReasonReturn      StockMovementReason = "return"
)

var validStockMovementReasons = []StockMovementReason{
	StockReasonReservation,
	StockReasonRelease,
	StockReasonReceipt,
	StockReasonAdjustment,
	StockReasonSale,
	StockReasonReturn,
}

// IsValid reports whether the value is a known StockMovementReason.
func (r StockMovementReason) IsValid() bool {
	for _, candidate := range validStockMovementReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStockMovementReason converts raw input into a StockMovementReason.
func ParseStockMovementReason(value string) (StockMovementReason, error) {
	for _, candidate := range validStockMovementReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement reason %q", value)
}
