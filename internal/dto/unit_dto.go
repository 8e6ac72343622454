package dto

import "time"

type QCRequest struct {
	Result     string  `json:"result"      validate:"required,oneof=pass fail"`
	ReasonCode *string `json:"reason_code" validate:"omitempty,oneof=DAMAGED DEFECTIVE WRONG_SIZE WRONG_COLOR INCOMPLETE OTHER"`
	Notes      *string `json:"notes"       validate:"omitempty,max=500"`
}

type PutawayRequest struct {
	LocationCode string `json:"location_code" validate:"required,max=40"`
}

type StoreRequest struct {
	OwnerType    string `json:"owner_type"    validate:"required,oneof=warehouse store"`
	OwnerID      string `json:"owner_id"      validate:"required,max=40"`
	LocationCode string `json:"location_code" validate:"required,max=40"`
}

type UnitResponse struct {
	ID           string    `json:"id"`
	ReceiptID    string    `json:"receipt_id"`
	LineID       string    `json:"line_id"`
	SKUCode      string    `json:"sku_code"`
	Barcode      string    `json:"barcode"`
	TechCode     string    `json:"tech_code"`
	Stage        string    `json:"stage"`
	QCReasonCode *string   `json:"qc_reason_code"`
	QCNotes      *string   `json:"qc_notes"`
	OwnerType    *string   `json:"owner_type"`
	OwnerID      *string   `json:"owner_id"`
	LocationCode *string   `json:"location_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
