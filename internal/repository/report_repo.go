package repository

import (
	"context"
	"time"

	"jourdash/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportRepository interface {
	CreateTx(tx *gorm.DB, r *model.ReconciliationReport) error
	FindByReceipt(ctx context.Context, receiptID uuid.UUID) (*model.ReconciliationReport, error)
	Update(ctx context.Context, r *model.ReconciliationReport) error
	// ListPendingRetries returns pending reports whose next_retry_at is due.
	ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.ReconciliationReport, error)
}

type reportRepo struct{ db *gorm.DB }

func NewReportRepository(db *gorm.DB) ReportRepository { return &reportRepo{db: db} }

func (r *reportRepo) CreateTx(tx *gorm.DB, rp *model.ReconciliationReport) error {
	return translate(tx.Create(rp).Error)
}

func (r *reportRepo) FindByReceipt(ctx context.Context, receiptID uuid.UUID) (*model.ReconciliationReport, error) {
	var rp model.ReconciliationReport
	err := r.db.WithContext(ctx).Where("receipt_id = ?", receiptID).First(&rp).Error
	return &rp, err
}

func (r *reportRepo) Update(ctx context.Context, rp *model.ReconciliationReport) error {
	return r.db.WithContext(ctx).Save(rp).Error
}

func (r *reportRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.ReconciliationReport, error) {
	var out []model.ReconciliationReport
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.ReportPending, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
