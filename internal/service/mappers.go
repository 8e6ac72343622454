package service

import (
	"encoding/json"
	"time"

	"jourdash/internal/dto"
	"jourdash/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, NewValidationError(field, "datetime")
	}
	return t, nil
}

func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ── Activity builders ────────────────────────────────────────────────────────

func receiptActivity(rc *model.GoodsReceipt, actor, action, description string, from, to model.ReceiptStatus, meta map[string]any) *model.Activity {
	id := rc.ID
	a := &model.Activity{
		ReceiptID:   &id,
		EntityType:  "receipt",
		EntityID:    rc.ReceiptNo,
		Action:      action,
		Description: description,
		Actor:       actor,
		Metadata:    encodeMeta(meta),
	}
	if from != "" {
		f := string(from)
		a.FromStatus = &f
	}
	if to != "" {
		t := string(to)
		a.ToStatus = &t
	}
	return a
}

func lineActivity(rc *model.GoodsReceipt, line *model.ReceiptLine, actor, action, description string, meta map[string]any) *model.Activity {
	id := rc.ID
	return &model.Activity{
		ReceiptID:   &id,
		EntityType:  "line",
		EntityID:    line.SKUCode,
		Action:      action,
		Description: description,
		Actor:       actor,
		Metadata:    encodeMeta(meta),
	}
}

func unitActivity(u *model.Unit, actor, action, description string, from, to model.UnitStage, meta map[string]any) *model.Activity {
	receiptID, unitID := u.ReceiptID, u.ID
	a := &model.Activity{
		ReceiptID:   &receiptID,
		UnitID:      &unitID,
		EntityType:  "unit",
		EntityID:    u.Barcode,
		Action:      action,
		Description: description,
		Actor:       actor,
		Metadata:    encodeMeta(meta),
	}
	if from != "" {
		f := string(from)
		a.FromStatus = &f
	}
	if to != "" {
		t := string(to)
		a.ToStatus = &t
	}
	return a
}

func encodeMeta(meta map[string]any) datatypes.JSON {
	if len(meta) == 0 {
		return nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// ── Response mappers ─────────────────────────────────────────────────────────

func toReceiptResponse(rc *model.GoodsReceipt, lines, units int64) dto.ReceiptResponse {
	resp := dto.ReceiptResponse{
		ID:                rc.ID.String(),
		ReceiptNo:         rc.ReceiptNo,
		SupplierID:        rc.SupplierID,
		SupplierName:      rc.SupplierName,
		SupplierInvoiceNo: rc.SupplierInvoiceNo,
		ReceiptDate:       rc.ReceiptDate.Format(dateLayout),
		Status:            string(rc.Status),
		Version:           rc.Version,
		LinesCount:        lines,
		UnitsCount:        units,
		AllowedActions:    rc.Status.AllowedActions(),
		CreatedBy:         rc.CreatedBy,
		ReconciledBy:      rc.ReconciledBy,
		ReconciledAt:      rc.ReconciledAt,
		CreatedAt:         rc.CreatedAt,
		UpdatedAt:         rc.UpdatedAt,
	}
	if rc.SupplierInvoiceDate != nil {
		d := rc.SupplierInvoiceDate.Format(dateLayout)
		resp.SupplierInvoiceDate = &d
	}
	return resp
}

func toLineResponse(l *model.ReceiptLine) dto.LineResponse {
	return dto.LineResponse{
		ID:          l.ID.String(),
		ReceiptID:   l.ReceiptID.String(),
		SKUCode:     l.SKUCode,
		Brand:       l.Brand,
		Gender:      l.Gender,
		Season:      l.Season,
		Category:    l.Category,
		Subcategory: l.Subcategory,
		ModelName:   l.ModelName,
		ModelCode:   l.ModelCode,
		ColorName:   l.ColorName,
		ColorCode:   l.ColorCode,
		Size:        l.Size,
		UOM:         l.UOM,
		Description: l.Description,
		ExpectedQty: l.ExpectedQty,
		CountedQty:  l.CountedQty,
		DiffQty:     l.DiffQty(),
		Notes:       l.Notes,
		UpdatedAt:   l.UpdatedAt,
	}
}

func toUnitResponse(u *model.Unit) dto.UnitResponse {
	return dto.UnitResponse{
		ID:           u.ID.String(),
		ReceiptID:    u.ReceiptID.String(),
		LineID:       u.LineID.String(),
		SKUCode:      u.SKUCode,
		Barcode:      u.Barcode,
		TechCode:     u.TechCode,
		Stage:        string(u.Stage),
		QCReasonCode: u.QCReasonCode,
		QCNotes:      u.QCNotes,
		OwnerType:    u.OwnerType,
		OwnerID:      u.OwnerID,
		LocationCode: u.LocationCode,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toActivityResponses(entries []model.Activity) []dto.ActivityResponse {
	out := make([]dto.ActivityResponse, 0, len(entries))
	for _, a := range entries {
		resp := dto.ActivityResponse{
			ID:          a.ID.String(),
			ReceiptID:   uuidPtrString(a.ReceiptID),
			UnitID:      uuidPtrString(a.UnitID),
			EntityType:  a.EntityType,
			EntityID:    a.EntityID,
			Action:      a.Action,
			Description: a.Description,
			Actor:       a.Actor,
			FromStatus:  a.FromStatus,
			ToStatus:    a.ToStatus,
			CreatedAt:   a.CreatedAt,
		}
		if len(a.Metadata) > 0 {
			var meta map[string]any
			if err := json.Unmarshal(a.Metadata, &meta); err == nil {
				resp.Metadata = meta
			}
		}
		out = append(out, resp)
	}
	return out
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
