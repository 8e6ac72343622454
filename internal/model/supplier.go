package model

import "time"

// Supplier is read-only here; rows come from the seed command or an upstream import.
type Supplier struct {
	ID        string `gorm:"type:varchar(20);primaryKey"`
	Name      string `gorm:"type:varchar(200);not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Supplier) TableName() string { return "suppliers" }
