package repository

import (
	"context"

	"jourdash/internal/model"

	"gorm.io/gorm"
)

type SupplierRepository interface {
	FindByID(ctx context.Context, id string) (*model.Supplier, error)
	ListActive(ctx context.Context) ([]model.Supplier, error)
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepository(db *gorm.DB) SupplierRepository { return &supplierRepo{db: db} }

func (r *supplierRepo) FindByID(ctx context.Context, id string) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *supplierRepo) ListActive(ctx context.Context) ([]model.Supplier, error) {
	var out []model.Supplier
	err := r.db.WithContext(ctx).Where("active = true").Order("id ASC").Find(&out).Error
	return out, err
}
