package infra

import (
	"fmt"

	"jourdash/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (CHECK constraints, partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates the schema. Also used by the integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Supplier{},
		&model.SKUModel{},
		&model.SKUColor{},
		&model.GoodsReceipt{},
		&model.ReceiptLine{},
		&model.Unit{},
		&model.Activity{},
		&model.ReconciliationReport{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// handle on its own. Each statement is guarded so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"receipt status check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_goods_receipts_status') THEN
    ALTER TABLE goods_receipts
      ADD CONSTRAINT chk_goods_receipts_status CHECK (status IN ('draft', 'counting', 'reconciled'));
  END IF;
END $$`},
		{"unit stage check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_goods_receipt_units_stage') THEN
    ALTER TABLE goods_receipt_units
      ADD CONSTRAINT chk_goods_receipt_units_stage
      CHECK (stage IN ('created', 'counting', 'qc_pass', 'qc_fail', 'putaway', 'stored'));
  END IF;
END $$`},
		{"line quantities non-negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_goods_receipt_lines_qty') THEN
    ALTER TABLE goods_receipt_lines
      ADD CONSTRAINT chk_goods_receipt_lines_qty CHECK (expected_qty >= 0 AND counted_qty >= 0);
  END IF;
END $$`},
		// partial index for the report retry cron query
		{"pending report retry index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_reconciliation_reports_pending_retry') THEN
    CREATE INDEX idx_reconciliation_reports_pending_retry
        ON reconciliation_reports (next_retry_at)
        WHERE status = 'pending' AND next_retry_at IS NOT NULL;
  END IF;
END $$`},
		{"receipt list order index", `
CREATE INDEX IF NOT EXISTS idx_goods_receipts_date_no
    ON goods_receipts (receipt_date DESC, receipt_no DESC)`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
