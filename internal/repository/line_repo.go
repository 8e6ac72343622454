package repository

import (
	"context"

	"jourdash/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LineRepository interface {
	ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]model.ReceiptLine, error)
	// CountByReceipts returns the number of lines per receipt id.
	CountByReceipts(ctx context.Context, receiptIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	ListByReceiptTx(tx *gorm.DB, receiptID uuid.UUID) ([]model.ReceiptLine, error)
	FindByIDTx(tx *gorm.DB, receiptID, lineID uuid.UUID) (*model.ReceiptLine, error)
	FindBySKUTx(tx *gorm.DB, receiptID uuid.UUID, skuCode string) (*model.ReceiptLine, error)
	CreateTx(tx *gorm.DB, l *model.ReceiptLine) error
	UpdateTx(tx *gorm.DB, l *model.ReceiptLine) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	// CopyExpectedToCountedTx sets counted_qty := expected_qty on every line of the receipt.
	CopyExpectedToCountedTx(tx *gorm.DB, receiptID uuid.UUID) error
}

type lineRepo struct{ db *gorm.DB }

func NewLineRepository(db *gorm.DB) LineRepository { return &lineRepo{db: db} }

func (r *lineRepo) ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]model.ReceiptLine, error) {
	return r.ListByReceiptTx(r.db.WithContext(ctx), receiptID)
}

func (r *lineRepo) CountByReceipts(ctx context.Context, receiptIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	return countGrouped(r.db.WithContext(ctx), &model.ReceiptLine{}, receiptIDs)
}

func (r *lineRepo) ListByReceiptTx(tx *gorm.DB, receiptID uuid.UUID) ([]model.ReceiptLine, error) {
	var lines []model.ReceiptLine
	err := tx.Where("receipt_id = ?", receiptID).Order("created_at ASC, sku_code ASC").Find(&lines).Error
	return lines, err
}

func (r *lineRepo) FindByIDTx(tx *gorm.DB, receiptID, lineID uuid.UUID) (*model.ReceiptLine, error) {
	var l model.ReceiptLine
	err := tx.Where("id = ? AND receipt_id = ?", lineID, receiptID).First(&l).Error
	return &l, err
}

func (r *lineRepo) FindBySKUTx(tx *gorm.DB, receiptID uuid.UUID, skuCode string) (*model.ReceiptLine, error) {
	var l model.ReceiptLine
	err := tx.Where("receipt_id = ? AND sku_code = ?", receiptID, skuCode).First(&l).Error
	return &l, err
}

func (r *lineRepo) CreateTx(tx *gorm.DB, l *model.ReceiptLine) error {
	return translate(tx.Create(l).Error)
}

func (r *lineRepo) UpdateTx(tx *gorm.DB, l *model.ReceiptLine) error {
	return tx.Save(l).Error
}

func (r *lineRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.ReceiptLine{}, "id = ?", id).Error
}

func (r *lineRepo) CopyExpectedToCountedTx(tx *gorm.DB, receiptID uuid.UUID) error {
	return tx.Model(&model.ReceiptLine{}).
		Where("receipt_id = ?", receiptID).
		Update("counted_qty", gorm.Expr("expected_qty")).Error
}

// countGrouped runs SELECT receipt_id, COUNT(*) … GROUP BY receipt_id.
func countGrouped(db *gorm.DB, table interface{}, receiptIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(receiptIDs))
	if len(receiptIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ReceiptID uuid.UUID
		N         int64
	}
	err := db.Model(table).
		Select("receipt_id, COUNT(*) AS n").
		Where("receipt_id IN ?", receiptIDs).
		Group("receipt_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ReceiptID] = row.N
	}
	return out, nil
}
