package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Activity is an append-only audit entry. Rows are never updated or deleted.
// EntityType: "receipt" | "line" | "unit" | "registry"
type Activity struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReceiptID   *uuid.UUID `gorm:"type:uuid;index"`
	UnitID      *uuid.UUID `gorm:"type:uuid;index"`
	EntityType  string     `gorm:"type:varchar(20);not null"`
	EntityID    string     `gorm:"type:varchar(60);not null"`
	Action      string     `gorm:"type:varchar(40);not null"`
	Description string     `gorm:"not null;default:''"`
	Actor       string     `gorm:"type:varchar(100);not null"`
	FromStatus  *string    `gorm:"type:varchar(20)"`
	ToStatus    *string    `gorm:"type:varchar(20)"`
	Metadata    datatypes.JSON
	CreatedAt   time.Time `gorm:"index"`
}

func (Activity) TableName() string { return "activity_log" }
