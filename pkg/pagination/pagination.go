package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any cursor query can request.
	MaxLimit = 100
)

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer returns the normalization result plus one to detect the next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// StockCursor orders low-stock scans by available stock then id.
type StockCursor struct {
	AvailableStock int
	ID             uuid.UUID
}

// EncodeStockCursor builds a base64 cursor for available-stock ordered pages.
func EncodeStockCursor(cursor StockCursor) string {
	payload := fmt.Sprintf("%d|%s", cursor.AvailableStock, cursor.ID.String())
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

// ParseStockCursor decodes a cursor produced by EncodeStockCursor.
func ParseStockCursor(value string) (*StockCursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	available, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor stock: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &StockCursor{AvailableStock: available, ID: id}, nil
}
