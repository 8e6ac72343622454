package model

import (
	"time"

	"github.com/google/uuid"
)

// ReceiptLine is one SKU on a receipt. (receipt_id, sku_code) is unique:
// adding the same attribute combination again increments ExpectedQty.
type ReceiptLine struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReceiptID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_receipt_line_sku,priority:1"`
	SKUCode   string    `gorm:"column:sku_code;type:char(14);not null;uniqueIndex:idx_receipt_line_sku,priority:2"`

	Brand       string `gorm:"type:varchar(60);not null"`
	Gender      string `gorm:"type:varchar(30);not null"`
	Season      string `gorm:"type:varchar(30);not null"`
	Category    string `gorm:"type:varchar(60);not null"`
	Subcategory string `gorm:"type:varchar(60);not null"`
	ModelName   string `gorm:"type:varchar(100);not null;default:''"`
	ModelCode   string `gorm:"type:char(3);not null"`
	ColorName   string `gorm:"type:varchar(60);not null;default:''"`
	ColorCode   string `gorm:"type:char(3);not null"`
	Size        string `gorm:"type:varchar(20);not null"`

	UOM         string `gorm:"column:uom;type:varchar(20);not null;default:'pcs'"`
	Description string `gorm:"not null;default:''"`
	ExpectedQty int    `gorm:"not null;default:0"`
	// CountedQty is copied from ExpectedQty on entering counting, then edited
	CountedQty int `gorm:"not null;default:0"`
	Notes      string `gorm:"not null;default:''"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ReceiptLine) TableName() string { return "goods_receipt_lines" }

// DiffQty is counted minus expected.
func (l ReceiptLine) DiffQty() int { return l.CountedQty - l.ExpectedQty }
