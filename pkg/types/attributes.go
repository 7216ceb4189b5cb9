package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// AttributePair references one attribute value chosen for a variant.
type AttributePair struct {
	TypeID  uuid.UUID `json:"type_id"`
	ValueID uuid.UUID `json:"value_id"`
}

// Complete reports whether both ends of the pair are set.
func (p AttributePair) Complete() bool {
	return p.TypeID != uuid.Nil && p.ValueID != uuid.Nil
}

// AttributePairs is persisted as a JSONB array.
type AttributePairs []AttributePair

// Value marshals the pairs into JSON for Postgres.
func (a AttributePairs) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	buf, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the pairs.
func (a *AttributePairs) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	raw, ok := toString(value)
	if !ok {
		return fmt.Errorf("attribute pairs: unsupported scan type %T", value)
	}

	var result AttributePairs
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return err
	}
	*a = result
	return nil
}

// Index keys used for the legacy size/color slots.
const (
	AttributeIndexLegacySize  = "size"
	AttributeIndexLegacyColor = "color"
)

// AttributeIndex maps an attribute type id (or a legacy slot name) to the
// chosen value id. It backs matrix filtering without unpacking the pairs.
type AttributeIndex map[string]string

// Value marshals the index into JSON for Postgres.
func (i AttributeIndex) Value() (driver.Value, error) {
	if i == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the index.
func (i *AttributeIndex) Scan(value interface{}) error {
	if value == nil {
		*i = nil
		return nil
	}
	raw, ok := toString(value)
	if !ok {
		return fmt.Errorf("attribute index: unsupported scan type %T", value)
	}

	result := make(AttributeIndex)
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return err
	}
	*i = result
	return nil
}
