package dto

import (
	"time"

	"jourdash/internal/reconcile"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateReceiptRequest struct {
	SupplierID          string  `json:"supplier_id"           validate:"required,max=20"`
	ReceiptDate         string  `json:"receipt_date"          validate:"required,datetime=2006-01-02"`
	SupplierInvoiceNo   string  `json:"supplier_invoice_no"   validate:"max=60"`
	SupplierInvoiceDate *string `json:"supplier_invoice_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateReceiptRequest patches header fields; nil fields are left untouched.
type UpdateReceiptRequest struct {
	SupplierID          *string `json:"supplier_id"           validate:"omitempty,min=1,max=20"`
	ReceiptDate         *string `json:"receipt_date"          validate:"omitempty,datetime=2006-01-02"`
	SupplierInvoiceNo   *string `json:"supplier_invoice_no"   validate:"omitempty,max=60"`
	SupplierInvoiceDate *string `json:"supplier_invoice_date" validate:"omitempty,datetime=2006-01-02"`
}

// ReconcileRequest is optional; an empty body means confirm=false.
type ReconcileRequest struct {
	Confirm         bool `json:"confirm"`
	ExpectedVersion *int `json:"expected_version" validate:"omitempty,min=1"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ReceiptFilter struct {
	Query    string `form:"query"`
	Status   string `form:"status"    validate:"omitempty,oneof=draft counting reconciled"`
	DateFrom string `form:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to"   validate:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReceiptResponse struct {
	ID                  string     `json:"id"`
	ReceiptNo           string     `json:"receipt_no"`
	SupplierID          string     `json:"supplier_id"`
	SupplierName        string     `json:"supplier_name"`
	SupplierInvoiceNo   string     `json:"supplier_invoice_no"`
	SupplierInvoiceDate *string    `json:"supplier_invoice_date"`
	ReceiptDate         string     `json:"receipt_date"`
	Status              string     `json:"status"`
	Version             int        `json:"version"`
	LinesCount          int64      `json:"lines_count"`
	UnitsCount          int64      `json:"units_count"`
	AllowedActions      []string   `json:"allowed_actions"`
	CreatedBy           string     `json:"created_by"`
	ReconciledBy        *string    `json:"reconciled_by"`
	ReconciledAt        *time.Time `json:"reconciled_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ReceiptDetailResponse is returned by GET /v1/gr/:id.
type ReceiptDetailResponse struct {
	ReceiptResponse
	Summary reconcile.Summary `json:"summary"`
}

type ReceiptListResponse struct {
	Data       []ReceiptResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// ActivityResponse is one audit entry.
type ActivityResponse struct {
	ID          string         `json:"id"`
	ReceiptID   *string        `json:"receipt_id"`
	UnitID      *string        `json:"unit_id"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	Actor       string         `json:"actor"`
	FromStatus  *string        `json:"from_status"`
	ToStatus    *string        `json:"to_status"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
