package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StockLocation is one slice of a multi-location stock distribution.
type StockLocation struct {
	Location string  `json:"location"`
	Quantity int     `json:"quantity"`
	Bin      *string `json:"bin,omitempty"`
}

// StockLocations is persisted as a JSONB array.
type StockLocations []StockLocation

// Total sums the quantity across every location.
func (l StockLocations) Total() int {
	total := 0
	for _, loc := range l {
		total += loc.Quantity
	}
	return total
}

// Value marshals the locations into JSON for Postgres.
func (l StockLocations) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	buf, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the locations.
func (l *StockLocations) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	raw, ok := toString(value)
	if !ok {
		return fmt.Errorf("stock locations: unsupported scan type %T", value)
	}

	var result StockLocations
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return err
	}
	*l = result
	return nil
}
