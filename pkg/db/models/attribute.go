package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
)

// AttributeType is a variant axis such as size, color, RAM or storage.
type AttributeType struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Code      string    `gorm:"column:code;not null;uniqueIndex:ux_attribute_types_code"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (a *AttributeType) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// AttributeValue is one selectable value of an AttributeType. A value may carry a
// price modifier applied on top of the variant base price.
type AttributeValue struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	AttributeTypeID uuid.UUID                `gorm:"column:attribute_type_id;type:uuid;not null;index"`
	Code            string                   `gorm:"column:code;not null"`
	Label           string                   `gorm:"column:label;not null"`
	ModifierType    *enums.PriceModifierType `gorm:"column:modifier_type;type:varchar(16)"`
	ModifierValue   decimal.Decimal          `gorm:"column:modifier_value;type:numeric(12,4);not null"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
}

func (a *AttributeValue) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
