package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jourdash/internal/dto"
	"jourdash/internal/model"
	"jourdash/internal/repository"
	"jourdash/internal/sku"
	"jourdash/internal/unitgen"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ── Lines ────────────────────────────────────────────────────────────────────

func (s *goodsReceiptService) ListLines(ctx context.Context, id uuid.UUID) ([]dto.LineResponse, error) {
	if _, err := s.receipts.FindByID(ctx, id); err != nil {
		return nil, notFound(err)
	}
	lines, err := s.lines.ListByReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LineResponse, 0, len(lines))
	for i := range lines {
		out = append(out, toLineResponse(&lines[i]))
	}
	return out, nil
}

// AddLine derives the SKU, creates or merges the line and generates one unit
// per expected item, all in one transaction.
func (s *goodsReceiptService) AddLine(ctx context.Context, actor string, id uuid.UUID, req dto.AddLineRequest) (*dto.AddLineResponse, error) {
	res, err := s.sku.Generate(sku.Attributes{
		Brand:       req.Brand,
		Gender:      req.Gender,
		Season:      req.Season,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		ModelCode:   req.ModelCode,
		ColorCode:   req.ColorCode,
		Size:        req.Size,
	})
	if err != nil {
		var attrErr *sku.AttributeError
		if errors.As(err, &attrErr) {
			return nil, &ValidationError{Fields: attrErr.Fields()}
		}
		return nil, err
	}
	if len(res.Fallbacks) > 0 {
		log.Warn().
			Str("sku", res.Code).
			Strs("fields", res.Fallbacks).
			Msg("sku attribute not in code table, default code used")
	}
	modelCode, _ := sku.NormalizeCode(req.ModelCode)
	colorCode, _ := sku.NormalizeCode(req.ColorCode)

	out := &dto.AddLineResponse{SKUWarnings: res.Fallbacks}
	err = s.mutate(ctx, id, func(tx *gorm.DB, rc *model.GoodsReceipt) error {
		if err := requireStatus(rc, "lines", model.ReceiptDraft); err != nil {
			return err
		}

		line, err := s.lines.FindBySKUTx(tx, rc.ID, res.Code)
		switch {
		case err == nil:
			if !req.ConfirmMerge {
				return &DuplicateSKUError{LineID: line.ID.String(), SKUCode: line.SKUCode, ExpectedQty: line.ExpectedQty}
			}
			before := line.ExpectedQty
			line.ExpectedQty += req.ExpectedQty
			if err := s.lines.UpdateTx(tx, line); err != nil {
				return err
			}
			out.Merged = true
			if err := s.activity.CreateTx(tx, lineActivity(rc, line, actor, "line_merged",
				fmt.Sprintf("expected quantity of %s raised by %d", line.SKUCode, req.ExpectedQty),
				map[string]any{"from": before, "to": line.ExpectedQty})); err != nil {
				return err
			}
		case repository.IsNotFound(err):
			line = &model.ReceiptLine{
				ID:          uuid.New(),
				ReceiptID:   rc.ID,
				SKUCode:     res.Code,
				Brand:       sku.Normalize(req.Brand),
				Gender:      sku.Normalize(req.Gender),
				Season:      sku.Normalize(req.Season),
				Category:    sku.Normalize(req.Category),
				Subcategory: sku.Normalize(req.Subcategory),
				ModelName:   sku.Normalize(req.ModelName),
				ModelCode:   modelCode,
				ColorName:   sku.Normalize(req.ColorName),
				ColorCode:   colorCode,
				Size:        strings.ToUpper(sku.Normalize(req.Size)),
				UOM:         uomOrDefault(req.UOM),
				Description: strings.TrimSpace(req.Description),
				ExpectedQty: req.ExpectedQty,
			}
			if err := s.lines.CreateTx(tx, line); err != nil {
				return err
			}
			if err := s.activity.CreateTx(tx, lineActivity(rc, line, actor, "line_added",
				"line "+line.SKUCode+" added",
				map[string]any{"expected_qty": line.ExpectedQty, "sku_warnings": res.Fallbacks})); err != nil {
				return err
			}
		default:
			return err
		}

		barcodes, err := s.createUnits(ctx, tx, rc, line, req.ExpectedQty, actor)
		if err != nil {
			return err
		}
		out.Line = toLineResponse(line)
		out.UnitsGenerated = len(barcodes)
		out.Barcodes = barcodes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *goodsReceiptService) UpdateCounted(ctx context.Context, actor string, id, lineID uuid.UUID, req dto.UpdateCountedRequest) (*dto.LineResponse, error) {
	if req.CountedQty == nil {
		return nil, NewValidationError("counted_qty", "required")
	}
	if *req.CountedQty < 0 {
		return nil, NewValidationError("counted_qty", "min")
	}

	var out dto.LineResponse
	err := s.mutate(ctx, id, func(tx *gorm.DB, rc *model.GoodsReceipt) error {
		if err := requireStatus(rc, "counted_qty", model.ReceiptCounting); err != nil {
			return err
		}
		line, err := s.lines.FindByIDTx(tx, rc.ID, lineID)
		if err != nil {
			return notFound(err)
		}
		before := line.CountedQty
		line.CountedQty = *req.CountedQty
		line.Notes = strings.TrimSpace(req.Notes)
		if err := s.lines.UpdateTx(tx, line); err != nil {
			return err
		}
		out = toLineResponse(line)
		return s.activity.CreateTx(tx, lineActivity(rc, line, actor, "counted_updated",
			fmt.Sprintf("counted quantity of %s set to %d", line.SKUCode, line.CountedQty),
			map[string]any{"from": before, "to": line.CountedQty, "diff": line.DiffQty()}))
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *goodsReceiptService) DeleteLine(ctx context.Context, actor string, id, lineID uuid.UUID) error {
	var removed []string
	err := s.mutate(ctx, id, func(tx *gorm.DB, rc *model.GoodsReceipt) error {
		if err := requireStatus(rc, "lines", model.ReceiptDraft); err != nil {
			return err
		}
		line, err := s.lines.FindByIDTx(tx, rc.ID, lineID)
		if err != nil {
			return notFound(err)
		}
		if removed, err = s.units.DeleteByLineTx(tx, line.ID); err != nil {
			return err
		}
		if err := s.lines.DeleteTx(tx, line.ID); err != nil {
			return err
		}
		return s.activity.CreateTx(tx, lineActivity(rc, line, actor, "line_deleted",
			"line "+line.SKUCode+" deleted",
			map[string]any{"units_deleted": len(removed), "expected_qty": line.ExpectedQty}))
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, removed...)
	return nil
}

// ── Units ────────────────────────────────────────────────────────────────────

func (s *goodsReceiptService) GenerateUnits(ctx context.Context, actor string, id, lineID uuid.UUID, req dto.GenerateUnitsRequest) (*dto.GenerateUnitsResponse, error) {
	if req.Quantity < 1 {
		return nil, NewValidationError("quantity", "min")
	}

	var out dto.GenerateUnitsResponse
	err := s.mutate(ctx, id, func(tx *gorm.DB, rc *model.GoodsReceipt) error {
		if err := requireStatus(rc, "units", model.ReceiptDraft); err != nil {
			return err
		}
		line, err := s.lines.FindByIDTx(tx, rc.ID, lineID)
		if err != nil {
			return notFound(err)
		}
		line.ExpectedQty += req.Quantity
		if err := s.lines.UpdateTx(tx, line); err != nil {
			return err
		}
		barcodes, err := s.createUnits(ctx, tx, rc, line, req.Quantity, actor)
		if err != nil {
			return err
		}
		out.Line = toLineResponse(line)
		out.Barcodes = barcodes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *goodsReceiptService) ListUnits(ctx context.Context, id uuid.UUID) ([]dto.UnitResponse, error) {
	if _, err := s.receipts.FindByID(ctx, id); err != nil {
		return nil, notFound(err)
	}
	units, err := s.units.ListByReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UnitResponse, 0, len(units))
	for i := range units {
		out = append(out, toUnitResponse(&units[i]))
	}
	return out, nil
}

// DeleteUnit removes one unit from a draft receipt and lowers its line's
// expected quantity by one.
func (s *goodsReceiptService) DeleteUnit(ctx context.Context, actor string, unitID uuid.UUID) error {
	u, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		return notFound(err)
	}

	err = s.mutate(ctx, u.ReceiptID, func(tx *gorm.DB, rc *model.GoodsReceipt) error {
		if err := requireStatus(rc, "units", model.ReceiptDraft); err != nil {
			return err
		}
		unit, err := s.units.FindByIDTx(tx, unitID)
		if err != nil {
			return notFound(err)
		}
		line, err := s.lines.FindByIDTx(tx, rc.ID, unit.LineID)
		if err != nil {
			return notFound(err)
		}
		if err := s.units.DeleteTx(tx, unit.ID); err != nil {
			return err
		}
		if line.ExpectedQty > 0 {
			line.ExpectedQty--
		}
		if err := s.lines.UpdateTx(tx, line); err != nil {
			return err
		}
		return s.activity.CreateTx(tx, unitActivity(unit, actor, "unit_deleted",
			"unit "+unit.Barcode+" deleted", unit.Stage, "",
			map[string]any{"sku": unit.SKUCode, "expected_qty": line.ExpectedQty}))
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, u.Barcode)
	return nil
}

// createUnits generates and persists quantity units for line inside tx.
func (s *goodsReceiptService) createUnits(ctx context.Context, tx *gorm.DB, rc *model.GoodsReceipt, line *model.ReceiptLine, quantity int, actor string) ([]string, error) {
	generated, err := s.unitGen.Generate(ctx, quantity, line.SKUCode)
	if err != nil {
		if errors.Is(err, unitgen.ErrBarcodeExhausted) {
			return nil, fmt.Errorf("%w: %v", ErrBarcodeCollision, err)
		}
		return nil, fmt.Errorf("generate units: %w", err)
	}

	units := make([]model.Unit, 0, len(generated))
	barcodes := make([]string, 0, len(generated))
	for _, g := range generated {
		units = append(units, model.Unit{
			ID:        uuid.New(),
			ReceiptID: rc.ID,
			LineID:    line.ID,
			SKUCode:   g.SKUCode,
			Barcode:   g.Barcode,
			TechCode:  g.TechCode,
			Stage:     model.StageCreated,
		})
		barcodes = append(barcodes, g.Barcode)
	}
	if err := s.units.CreateBatchTx(tx, units); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %v", ErrBarcodeCollision, err)
		}
		return nil, err
	}

	meta := map[string]any{"count": len(barcodes)}
	if len(barcodes) > 0 {
		meta["first_barcode"] = barcodes[0]
		meta["last_barcode"] = barcodes[len(barcodes)-1]
	}
	if err := s.activity.CreateTx(tx, lineActivity(rc, line, actor, "units_generated",
		fmt.Sprintf("%d units generated for %s", len(barcodes), line.SKUCode), meta)); err != nil {
		return nil, err
	}
	return barcodes, nil
}

func uomOrDefault(uom string) string {
	if uom = strings.TrimSpace(uom); uom == "" {
		return "pcs"
	}
	return uom
}

func strPtr(s string) *string { return &s }
