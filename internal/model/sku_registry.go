package model

import (
	"time"

	"github.com/google/uuid"
)

// SKUModel maps a product model name to the 3-digit code used in SKU position 7-9.
type SKUModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Code        string    `gorm:"type:char(3);uniqueIndex;not null"`
	Description string    `gorm:"not null;default:''"`
	CreatedAt   time.Time
}

func (SKUModel) TableName() string { return "sku_models" }

// SKUColor maps a color name to the 3-digit code used in SKU position 10-12.
type SKUColor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(60);not null"`
	Code      string    `gorm:"type:char(3);uniqueIndex;not null"`
	CreatedAt time.Time
}

func (SKUColor) TableName() string { return "sku_colors" }
