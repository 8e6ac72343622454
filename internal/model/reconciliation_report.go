package model

import (
	"time"

	"github.com/google/uuid"
)

// Report statuses.
const (
	ReportPending   = "pending"
	ReportGenerated = "generated"
	ReportFailed    = "failed"
)

// ReconciliationReport tracks the PDF produced after a receipt reconciles.
// Status: "pending" | "generated" | "failed"
type ReconciliationReport struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReceiptID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending'"`
	// ObjectKey is relative to the report store (local dir or MinIO bucket)
	ObjectKey *string
	// Retry fields, used by the retry cron
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ReconciliationReport) TableName() string { return "reconciliation_reports" }
