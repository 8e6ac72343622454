package repository

import (
	"context"
	"time"

	"jourdash/internal/dto"
	"jourdash/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReceiptRepository is the data access contract for goods receipt headers.
type ReceiptRepository interface {
	CreateTx(tx *gorm.DB, r *model.GoodsReceipt) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.GoodsReceipt, error)
	List(ctx context.Context, filter dto.ReceiptFilter) ([]model.GoodsReceipt, int64, error)

	// Used inside transactions: callers must pass the tx instance

	// FindByIDForUpdate reads the header with SELECT … FOR UPDATE.
	FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.GoodsReceipt, error)
	// UpdateTx writes r only if the stored version still equals expectedVersion,
	// bumping it by one. Returns ErrStaleVersion otherwise.
	UpdateTx(tx *gorm.DB, r *model.GoodsReceipt, expectedVersion int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type receiptRepo struct{ db *gorm.DB }

func NewReceiptRepository(db *gorm.DB) ReceiptRepository { return &receiptRepo{db: db} }

func (r *receiptRepo) DB() *gorm.DB { return r.db }

func (r *receiptRepo) CreateTx(tx *gorm.DB, rc *model.GoodsReceipt) error {
	return translate(tx.Create(rc).Error)
}

func (r *receiptRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.GoodsReceipt, error) {
	var rc model.GoodsReceipt
	err := r.db.WithContext(ctx).First(&rc, "id = ?", id).Error
	return &rc, err
}

func (r *receiptRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.GoodsReceipt, error) {
	var rc model.GoodsReceipt
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rc, "id = ?", id).Error
	return &rc, err
}

func (r *receiptRepo) UpdateTx(tx *gorm.DB, rc *model.GoodsReceipt, expectedVersion int) error {
	now := time.Now()
	res := tx.Model(&model.GoodsReceipt{}).
		Where("id = ? AND version = ?", rc.ID, expectedVersion).
		Updates(map[string]interface{}{
			"supplier_id":           rc.SupplierID,
			"supplier_name":         rc.SupplierName,
			"supplier_invoice_no":   rc.SupplierInvoiceNo,
			"supplier_invoice_date": rc.SupplierInvoiceDate,
			"receipt_date":          rc.ReceiptDate,
			"status":                rc.Status,
			"reconciled_by":         rc.ReconciledBy,
			"reconciled_at":         rc.ReconciledAt,
			"version":               expectedVersion + 1,
			"updated_at":            now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	rc.Version = expectedVersion + 1
	rc.UpdatedAt = now
	return nil
}

func (r *receiptRepo) List(ctx context.Context, filter dto.ReceiptFilter) ([]model.GoodsReceipt, int64, error) {
	var receipts []model.GoodsReceipt
	var total int64

	q := r.db.WithContext(ctx).Model(&model.GoodsReceipt{})

	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("receipt_no ILIKE ? OR supplier_name ILIKE ? OR supplier_invoice_no ILIKE ?", like, like, like)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != "" {
		q = q.Where("receipt_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q = q.Where("receipt_date <= ?", filter.DateTo)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("receipt_date DESC, receipt_no DESC").Limit(filter.Limit).Offset(offset).Find(&receipts).Error
	return receipts, total, err
}
