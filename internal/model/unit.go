package model

import (
	"time"

	"github.com/google/uuid"
)

// UnitStage is the physical flow position of a single received item.
// Path: created → counting → qc_pass | qc_fail; qc_pass → putaway → stored.
type UnitStage string

const (
	StageCreated  UnitStage = "created"
	StageCounting UnitStage = "counting"
	StageQCPass   UnitStage = "qc_pass"
	StageQCFail   UnitStage = "qc_fail"
	StagePutaway  UnitStage = "putaway"
	StageStored   UnitStage = "stored"
)

// CanAdvanceTo reports whether s → next is a legal forward step.
func (s UnitStage) CanAdvanceTo(next UnitStage) bool {
	switch s {
	case StageCreated:
		return next == StageCounting
	case StageCounting:
		return next == StageQCPass || next == StageQCFail
	case StageQCPass:
		return next == StagePutaway
	case StagePutaway:
		return next == StageStored
	}
	return false
}

// QC failure reasons accepted by the inspection screen.
const (
	QCReasonDamaged    = "DAMAGED"
	QCReasonDefective  = "DEFECTIVE"
	QCReasonWrongSize  = "WRONG_SIZE"
	QCReasonWrongColor = "WRONG_COLOR"
	QCReasonIncomplete = "INCOMPLETE"
	QCReasonOther      = "OTHER"
)

// Owner types for stored units.
const (
	OwnerWarehouse = "warehouse"
	OwnerStore     = "store"
)

// Unit is one physical item with its own barcode.
// Stage: "created" | "counting" | "qc_pass" | "qc_fail" | "putaway" | "stored"
type Unit struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReceiptID uuid.UUID `gorm:"type:uuid;index;not null"`
	LineID    uuid.UUID `gorm:"type:uuid;index;not null"`
	SKUCode   string    `gorm:"column:sku_code;type:char(14);index;not null"`
	Barcode   string    `gorm:"type:char(12);uniqueIndex;not null"`
	TechCode  string    `gorm:"type:varchar(40);uniqueIndex;not null"`
	Stage     UnitStage `gorm:"type:varchar(20);index;not null;default:'created'"`
	// QCReasonCode is only set for qc_fail
	QCReasonCode *string `gorm:"column:qc_reason_code;type:varchar(20)"`
	QCNotes      *string `gorm:"column:qc_notes"`
	OwnerType    *string `gorm:"type:varchar(20)"`
	OwnerID      *string `gorm:"type:varchar(40)"`
	LocationCode *string `gorm:"type:varchar(40)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Unit) TableName() string { return "goods_receipt_units" }
