package repository

import (
	"context"

	"jourdash/internal/model"

	"gorm.io/gorm"
)

// RegistryRepository stores the model and color code registries used by SKU generation.
type RegistryRepository interface {
	ListModels(ctx context.Context, query string) ([]model.SKUModel, error)
	CreateModel(ctx context.Context, m *model.SKUModel) error
	ListColors(ctx context.Context, query string) ([]model.SKUColor, error)
	CreateColor(ctx context.Context, c *model.SKUColor) error
}

type registryRepo struct{ db *gorm.DB }

func NewRegistryRepository(db *gorm.DB) RegistryRepository { return &registryRepo{db: db} }

func (r *registryRepo) ListModels(ctx context.Context, query string) ([]model.SKUModel, error) {
	var out []model.SKUModel
	q := r.db.WithContext(ctx)
	if query != "" {
		q = q.Where("name ILIKE ? OR code LIKE ?", "%"+query+"%", query+"%")
	}
	err := q.Order("code ASC").Find(&out).Error
	return out, err
}

func (r *registryRepo) CreateModel(ctx context.Context, m *model.SKUModel) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *registryRepo) ListColors(ctx context.Context, query string) ([]model.SKUColor, error) {
	var out []model.SKUColor
	q := r.db.WithContext(ctx)
	if query != "" {
		q = q.Where("name ILIKE ? OR code LIKE ?", "%"+query+"%", query+"%")
	}
	err := q.Order("code ASC").Find(&out).Error
	return out, err
}

func (r *registryRepo) CreateColor(ctx context.Context, c *model.SKUColor) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}
