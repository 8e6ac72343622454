package service

import (
	"context"
	"fmt"
	"strings"

	"jourdash/internal/dto"
	"jourdash/internal/model"
	"jourdash/internal/repository"
	"jourdash/internal/unitgen"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnitService covers scan lookup and the post-receiving unit flow:
// QC, putaway and storage.
type UnitService interface {
	Get(ctx context.Context, id uuid.UUID) (*dto.UnitResponse, error)
	Scan(ctx context.Context, barcode string) (*dto.UnitResponse, error)
	History(ctx context.Context, id uuid.UUID) ([]dto.ActivityResponse, error)
	RecordQC(ctx context.Context, actor, barcode string, req dto.QCRequest) (*dto.UnitResponse, error)
	Putaway(ctx context.Context, actor, barcode string, req dto.PutawayRequest) (*dto.UnitResponse, error)
	Store(ctx context.Context, actor, barcode string, req dto.StoreRequest) (*dto.UnitResponse, error)
}

type unitService struct {
	receipts repository.ReceiptRepository
	units    repository.UnitRepository
	activity repository.ActivityRepository
	locker   Locker
	cache    UnitCache
}

// NewUnitService wires the unit flow. locker and cache may be nil.
func NewUnitService(
	receipts repository.ReceiptRepository,
	units repository.UnitRepository,
	activity repository.ActivityRepository,
	locker Locker,
	cache UnitCache,
) UnitService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if cache == nil {
		cache = noopCache{}
	}
	return &unitService{receipts: receipts, units: units, activity: activity, locker: locker, cache: cache}
}

func (s *unitService) Get(ctx context.Context, id uuid.UUID) (*dto.UnitResponse, error) {
	u, err := s.units.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	resp := toUnitResponse(u)
	return &resp, nil
}

func (s *unitService) Scan(ctx context.Context, barcode string) (*dto.UnitResponse, error) {
	bc, err := scannedBarcode(barcode)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(ctx, bc); ok {
		return cached, nil
	}
	u, err := s.units.FindByBarcode(ctx, bc)
	if err != nil {
		return nil, notFound(err)
	}
	resp := toUnitResponse(u)
	s.cache.Set(ctx, resp)
	return &resp, nil
}

func (s *unitService) History(ctx context.Context, id uuid.UUID) ([]dto.ActivityResponse, error) {
	if _, err := s.units.FindByID(ctx, id); err != nil {
		return nil, notFound(err)
	}
	entries, err := s.activity.ListByUnit(ctx, id)
	if err != nil {
		return nil, err
	}
	return toActivityResponses(entries), nil
}

func (s *unitService) RecordQC(ctx context.Context, actor, barcode string, req dto.QCRequest) (*dto.UnitResponse, error) {
	var to model.UnitStage
	switch req.Result {
	case "pass":
		to = model.StageQCPass
	case "fail":
		to = model.StageQCFail
		if req.ReasonCode == nil || *req.ReasonCode == "" {
			return nil, NewValidationError("reason_code", "required")
		}
	default:
		return nil, NewValidationError("result", "oneof")
	}

	return s.advance(ctx, actor, barcode, to, func(u *model.Unit) map[string]any {
		meta := map[string]any{"result": req.Result}
		if to == model.StageQCFail {
			u.QCReasonCode = req.ReasonCode
			meta["reason_code"] = *req.ReasonCode
		}
		if req.Notes != nil {
			notes := strings.TrimSpace(*req.Notes)
			u.QCNotes = &notes
		}
		return meta
	})
}

func (s *unitService) Putaway(ctx context.Context, actor, barcode string, req dto.PutawayRequest) (*dto.UnitResponse, error) {
	location := strings.TrimSpace(req.LocationCode)
	if location == "" {
		return nil, NewValidationError("location_code", "required")
	}
	return s.advance(ctx, actor, barcode, model.StagePutaway, func(u *model.Unit) map[string]any {
		u.LocationCode = &location
		return map[string]any{"location_code": location}
	})
}

func (s *unitService) Store(ctx context.Context, actor, barcode string, req dto.StoreRequest) (*dto.UnitResponse, error) {
	if req.OwnerType != model.OwnerWarehouse && req.OwnerType != model.OwnerStore {
		return nil, NewValidationError("owner_type", "oneof")
	}
	ownerID := strings.TrimSpace(req.OwnerID)
	location := strings.TrimSpace(req.LocationCode)
	return s.advance(ctx, actor, barcode, model.StageStored, func(u *model.Unit) map[string]any {
		ownerType := req.OwnerType
		u.OwnerType = &ownerType
		u.OwnerID = &ownerID
		u.LocationCode = &location
		return map[string]any{"owner_type": ownerType, "owner_id": ownerID, "location_code": location}
	})
}

// advance moves one unit to stage to under its barcode lock. apply sets the
// stage-specific fields and returns the audit metadata.
func (s *unitService) advance(ctx context.Context, actor, barcode string, to model.UnitStage, apply func(u *model.Unit) map[string]any) (*dto.UnitResponse, error) {
	bc, err := scannedBarcode(barcode)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, unitLockKey(bc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	defer unlock()

	var out dto.UnitResponse
	err = runTx(ctx, s.receipts.DB(), func(tx *gorm.DB) error {
		u, err := s.units.FindByBarcodeForUpdate(tx, bc)
		if err != nil {
			return notFound(err)
		}
		rc, err := s.receipts.FindByID(ctx, u.ReceiptID)
		if err != nil {
			return notFound(err)
		}
		if rc.Status != model.ReceiptReconciled {
			return &StateConflictError{
				Entity: "unit", Field: "stage", Status: string(u.Stage),
				Reason: "receipt " + rc.ReceiptNo + " is not reconciled yet",
			}
		}
		if !u.Stage.CanAdvanceTo(to) {
			return &StateConflictError{Entity: "unit", Field: "stage", Status: string(u.Stage)}
		}

		from := u.Stage
		u.Stage = to
		meta := apply(u)
		if err := s.units.UpdateTx(tx, u); err != nil {
			return err
		}
		out = toUnitResponse(u)
		return s.activity.CreateTx(tx, unitActivity(u, actor, "stage_changed",
			fmt.Sprintf("unit %s moved to %s", u.Barcode, to), from, to, meta))
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, bc)
	return &out, nil
}

// scannedBarcode normalizes scanner input and rejects anything that is not a
// valid 12-digit barcode.
func scannedBarcode(raw string) (string, error) {
	bc := unitgen.NormalizeBarcode(raw)
	if !unitgen.ValidBarcode(bc) {
		return "", NewValidationError("barcode", "barcode")
	}
	return bc, nil
}
