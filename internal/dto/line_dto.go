package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AddLineRequest carries the eight SKU attributes. ModelCode and ColorCode are
// 3-digit registry codes; the names are display snapshots.
type AddLineRequest struct {
	Brand       string `json:"brand"       validate:"required,max=60"`
	Gender      string `json:"gender"      validate:"required,max=30"`
	Season      string `json:"season"      validate:"required,max=30"`
	Category    string `json:"category"    validate:"required,max=60"`
	Subcategory string `json:"subcategory" validate:"required,max=60"`
	ModelName   string `json:"model_name"  validate:"max=100"`
	ModelCode   string `json:"model_code"  validate:"required"`
	ColorName   string `json:"color_name"  validate:"max=60"`
	ColorCode   string `json:"color_code"  validate:"required"`
	Size        string `json:"size"        validate:"required,max=20"`
	UOM         string `json:"uom"         validate:"omitempty,max=20"`
	Description string `json:"description" validate:"max=500"`
	ExpectedQty int    `json:"expected_qty" validate:"required,min=1,max=10000"`
	// ConfirmMerge must be true to add onto an existing line with the same SKU
	ConfirmMerge bool `json:"confirm_merge"`
}

type UpdateCountedRequest struct {
	CountedQty *int   `json:"counted_qty" validate:"required,min=0"`
	Notes      string `json:"notes"       validate:"max=500"`
}

type GenerateUnitsRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=10000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LineResponse struct {
	ID          string    `json:"id"`
	ReceiptID   string    `json:"receipt_id"`
	SKUCode     string    `json:"sku_code"`
	Brand       string    `json:"brand"`
	Gender      string    `json:"gender"`
	Season      string    `json:"season"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	ModelName   string    `json:"model_name"`
	ModelCode   string    `json:"model_code"`
	ColorName   string    `json:"color_name"`
	ColorCode   string    `json:"color_code"`
	Size        string    `json:"size"`
	UOM         string    `json:"uom"`
	Description string    `json:"description"`
	ExpectedQty int       `json:"expected_qty"`
	CountedQty  int       `json:"counted_qty"`
	DiffQty     int       `json:"diff_qty"`
	Notes       string    `json:"notes"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AddLineResponse reports the resulting line and the units created by this call.
type AddLineResponse struct {
	Line           LineResponse `json:"line"`
	Merged         bool         `json:"merged"`
	UnitsGenerated int          `json:"units_generated"`
	Barcodes       []string     `json:"barcodes"`
	// SKUWarnings lists attributes that fell back to a default code
	SKUWarnings []string `json:"sku_warnings,omitempty"`
}

// GenerateUnitsResponse is returned by POST .../generate-units.
type GenerateUnitsResponse struct {
	Line     LineResponse `json:"line"`
	Barcodes []string     `json:"barcodes"`
}
