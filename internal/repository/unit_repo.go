package repository

import (
	"context"
	"errors"
	"time"

	"jourdash/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Unit, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Unit, error)
	ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]model.Unit, error)
	CountByReceipts(ctx context.Context, receiptIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	// ExistingBarcodes returns the subset of barcodes already stored.
	ExistingBarcodes(ctx context.Context, barcodes []string) ([]string, error)
	// MaxBarcode returns the highest stored barcode, or "" when there are none.
	MaxBarcode(ctx context.Context) (string, error)

	CreateBatchTx(tx *gorm.DB, units []model.Unit) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Unit, error)
	FindByBarcodeForUpdate(tx *gorm.DB, barcode string) (*model.Unit, error)
	UpdateTx(tx *gorm.DB, u *model.Unit) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	// DeleteByLineTx removes the units of a line and returns their barcodes.
	DeleteByLineTx(tx *gorm.DB, lineID uuid.UUID) ([]string, error)
	// AdvanceStageTx moves every unit of the receipt at stage from to stage to
	// and returns the barcodes it moved.
	AdvanceStageTx(tx *gorm.DB, receiptID uuid.UUID, from, to model.UnitStage) ([]string, error)
}

type unitRepo struct{ db *gorm.DB }

func NewUnitRepository(db *gorm.DB) UnitRepository { return &unitRepo{db: db} }

const unitBatchSize = 500

func (r *unitRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *unitRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Unit, error) {
	var u model.Unit
	err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&u).Error
	return &u, err
}

func (r *unitRepo) ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]model.Unit, error) {
	var units []model.Unit
	err := r.db.WithContext(ctx).Where("receipt_id = ?", receiptID).Order("barcode ASC").Find(&units).Error
	return units, err
}

func (r *unitRepo) CountByReceipts(ctx context.Context, receiptIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	return countGrouped(r.db.WithContext(ctx), &model.Unit{}, receiptIDs)
}

func (r *unitRepo) ExistingBarcodes(ctx context.Context, barcodes []string) ([]string, error) {
	var found []string
	if len(barcodes) == 0 {
		return found, nil
	}
	err := r.db.WithContext(ctx).Model(&model.Unit{}).Where("barcode IN ?", barcodes).Pluck("barcode", &found).Error
	return found, err
}

func (r *unitRepo) MaxBarcode(ctx context.Context) (string, error) {
	var u model.Unit
	err := r.db.WithContext(ctx).Select("barcode").Order("barcode DESC").Limit(1).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return u.Barcode, err
}

func (r *unitRepo) CreateBatchTx(tx *gorm.DB, units []model.Unit) error {
	if len(units) == 0 {
		return nil
	}
	return translate(tx.CreateInBatches(units, unitBatchSize).Error)
}

func (r *unitRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Unit, error) {
	var u model.Unit
	err := tx.First(&u, "id = ?", id).Error
	return &u, err
}

func (r *unitRepo) FindByBarcodeForUpdate(tx *gorm.DB, barcode string) (*model.Unit, error) {
	var u model.Unit
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("barcode = ?", barcode).First(&u).Error
	return &u, err
}

func (r *unitRepo) UpdateTx(tx *gorm.DB, u *model.Unit) error {
	return tx.Save(u).Error
}

func (r *unitRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Unit{}, "id = ?", id).Error
}

func (r *unitRepo) DeleteByLineTx(tx *gorm.DB, lineID uuid.UUID) ([]string, error) {
	var barcodes []string
	if err := tx.Model(&model.Unit{}).Where("line_id = ?", lineID).Pluck("barcode", &barcodes).Error; err != nil {
		return nil, err
	}
	if len(barcodes) == 0 {
		return barcodes, nil
	}
	return barcodes, tx.Where("line_id = ?", lineID).Delete(&model.Unit{}).Error
}

func (r *unitRepo) AdvanceStageTx(tx *gorm.DB, receiptID uuid.UUID, from, to model.UnitStage) ([]string, error) {
	var barcodes []string
	q := tx.Model(&model.Unit{}).Where("receipt_id = ? AND stage = ?", receiptID, from)
	if err := q.Pluck("barcode", &barcodes).Error; err != nil {
		return nil, err
	}
	if len(barcodes) == 0 {
		return barcodes, nil
	}
	err := tx.Model(&model.Unit{}).
		Where("receipt_id = ? AND stage = ?", receiptID, from).
		Updates(map[string]interface{}{"stage": to, "updated_at": time.Now()}).Error
	return barcodes, err
}
