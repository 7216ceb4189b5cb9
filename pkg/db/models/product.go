package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is the owning catalog entry for variants. Its master data is managed elsewhere.
type Product struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SKU       string     `gorm:"column:sku;not null"`
	Name      string     `gorm:"column:name;not null"`
	IsDeleted bool       `gorm:"column:is_deleted;not null;default:false"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
