package inventory

import "github.com/angelmondragon/catalog-backoffice/pkg/enums"

// AvailableStock is total minus reserved, floored at zero.
func AvailableStock(total, reserved int) int {
	if available := total - reserved; available > 0 {
		return available
	}
	return 0
}

// DeriveStatus applies the stock state rule to totalStock. DISCONTINUED is only
// entered and left explicitly, so it is preserved.
func DeriveStatus(current enums.InventoryStatus, total, lowStockThreshold int) enums.InventoryStatus {
	if current == enums.InventoryStatusDiscontinued {
		return current
	}
	switch {
	case total <= 0:
		return enums.InventoryStatusOutOfStock
	case total <= lowStockThreshold:
		return enums.InventoryStatusLowStock
	default:
		return enums.InventoryStatusInStock
	}
}
