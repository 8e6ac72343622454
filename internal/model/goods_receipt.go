package model

import (
	"time"

	"github.com/google/uuid"
)

// ReceiptStatus is the lifecycle state of a GoodsReceipt.
// Transitions are strictly forward: draft → counting → reconciled.
type ReceiptStatus string

const (
	ReceiptDraft      ReceiptStatus = "draft"
	ReceiptCounting   ReceiptStatus = "counting"
	ReceiptReconciled ReceiptStatus = "reconciled"
)

// Valid reports whether s is a known status.
func (s ReceiptStatus) Valid() bool {
	switch s {
	case ReceiptDraft, ReceiptCounting, ReceiptReconciled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows s → next.
func (s ReceiptStatus) CanTransitionTo(next ReceiptStatus) bool {
	switch s {
	case ReceiptDraft:
		return next == ReceiptCounting
	case ReceiptCounting:
		return next == ReceiptReconciled
	}
	return false
}

// Locked is true once the receipt can no longer be mutated.
func (s ReceiptStatus) Locked() bool { return s == ReceiptReconciled }

// AllowedActions lists the mutating operations available in status s.
// The console uses it to decide which buttons to render.
func (s ReceiptStatus) AllowedActions() []string {
	switch s {
	case ReceiptDraft:
		return []string{"update_header", "add_line", "delete_line", "generate_units", "delete_unit", "enter_counting"}
	case ReceiptCounting:
		return []string{"update_counted", "reconcile"}
	}
	return []string{}
}

// GoodsReceipt is the aggregate root of one inbound delivery.
// Status: "draft" | "counting" | "reconciled"
type GoodsReceipt struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReceiptNo string    `gorm:"type:varchar(20);uniqueIndex;not null"`
	// SupplierName is a snapshot taken when the supplier is assigned
	SupplierID          string        `gorm:"type:varchar(20);index;not null"`
	SupplierName        string        `gorm:"type:varchar(200);not null"`
	SupplierInvoiceNo   string        `gorm:"type:varchar(60);not null;default:''"`
	SupplierInvoiceDate *time.Time    `gorm:"type:date"`
	ReceiptDate         time.Time     `gorm:"type:date;index;not null"`
	Status              ReceiptStatus `gorm:"type:varchar(20);index;not null;default:'draft'"`
	// Version increases on every aggregate mutation (optimistic concurrency token)
	Version      int    `gorm:"not null;default:1"`
	CreatedBy    string `gorm:"type:varchar(100);not null"`
	ReconciledBy *string
	ReconciledAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Lines []ReceiptLine `gorm:"foreignKey:ReceiptID"`
}

func (GoodsReceipt) TableName() string { return "goods_receipts" }
