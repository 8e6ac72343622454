package repository

import (
	"context"

	"jourdash/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityRepository is append-only: there is no Update or Delete.
type ActivityRepository interface {
	Create(ctx context.Context, a *model.Activity) error
	CreateTx(tx *gorm.DB, a *model.Activity) error
	ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]model.Activity, error)
	ListByUnit(ctx context.Context, unitID uuid.UUID) ([]model.Activity, error)
}

type activityRepo struct{ db *gorm.DB }

func NewActivityRepository(db *gorm.DB) ActivityRepository { return &activityRepo{db: db} }

func (r *activityRepo) Create(ctx context.Context, a *model.Activity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *activityRepo) CreateTx(tx *gorm.DB, a *model.Activity) error {
	return tx.Create(a).Error
}

func (r *activityRepo) ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]model.Activity, error) {
	var out []model.Activity
	err := r.db.WithContext(ctx).Where("receipt_id = ?", receiptID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *activityRepo) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]model.Activity, error) {
	var out []model.Activity
	err := r.db.WithContext(ctx).Where("unit_id = ?", unitID).Order("created_at ASC").Find(&out).Error
	return out, err
}
