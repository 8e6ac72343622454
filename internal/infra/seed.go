package infra

import (
	"context"
	"fmt"

	"jourdash/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reference rows for development and tests.
var (
	seedSuppliers = []model.Supplier{
		{ID: "SUP-001", Name: "Tehran Textiles", Active: true},
		{ID: "SUP-002", Name: "Tabriz Leather", Active: true},
		{ID: "SUP-003", Name: "Isfahan Footwear", Active: true},
	}
	seedModels = []model.SKUModel{
		{Name: "کلاسیک", Code: "230"},
		{Name: "مدرن", Code: "450"},
		{Name: "ورزشی", Code: "670"},
		{Name: "رسمی", Code: "890"},
	}
	seedColors = []model.SKUColor{
		{Name: "آبی", Code: "001"},
		{Name: "سفید", Code: "002"},
		{Name: "مشکی", Code: "003"},
		{Name: "قرمز", Code: "004"},
		{Name: "سبز", Code: "005"},
	}
)

// SeedReferenceData inserts the demo suppliers and registries. Existing rows
// are left untouched, so it can run repeatedly.
func SeedReferenceData(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(cloneSlice(seedSuppliers)).Error; err != nil {
		return fmt.Errorf("seed suppliers: %w", err)
	}
	if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).Create(cloneSlice(seedModels)).Error; err != nil {
		return fmt.Errorf("seed models: %w", err)
	}
	if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).Create(cloneSlice(seedColors)).Error; err != nil {
		return fmt.Errorf("seed colors: %w", err)
	}
	return nil
}

// cloneSlice keeps Create from writing generated ids back into the package vars.
func cloneSlice[T any](in []T) []T {
	return append([]T(nil), in...)
}
