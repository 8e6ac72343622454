package service

import (
	"context"
	"errors"

	"jourdash/internal/dto"
	"jourdash/internal/model"
	"jourdash/internal/repository"
	"jourdash/internal/sku"

	"github.com/rs/zerolog/log"
)

// RegistryService manages the model and color code registries and exposes
// the supplier directory and the SKU attribute tables.
type RegistryService interface {
	ListModels(ctx context.Context, query string) ([]dto.RegistryEntryResponse, error)
	CreateModel(ctx context.Context, actor string, req dto.CreateModelRequest) (*dto.RegistryEntryResponse, error)
	ListColors(ctx context.Context, query string) ([]dto.RegistryEntryResponse, error)
	CreateColor(ctx context.Context, actor string, req dto.CreateColorRequest) (*dto.RegistryEntryResponse, error)
	ListSuppliers(ctx context.Context) ([]dto.SupplierResponse, error)
	AttributeValues() dto.AttributeValuesResponse
}

type registryService struct {
	repo      repository.RegistryRepository
	suppliers repository.SupplierRepository
	activity  repository.ActivityRepository
	sku       *sku.Generator
}

func NewRegistryService(
	repo repository.RegistryRepository,
	suppliers repository.SupplierRepository,
	activity repository.ActivityRepository,
	gen *sku.Generator,
) RegistryService {
	return &registryService{repo: repo, suppliers: suppliers, activity: activity, sku: gen}
}

func (s *registryService) ListModels(ctx context.Context, query string) ([]dto.RegistryEntryResponse, error) {
	models, err := s.repo.ListModels(ctx, sku.Normalize(query))
	if err != nil {
		return nil, err
	}
	out := make([]dto.RegistryEntryResponse, 0, len(models))
	for _, m := range models {
		out = append(out, dto.RegistryEntryResponse{ID: m.ID.String(), Name: m.Name, Code: m.Code, Description: m.Description})
	}
	return out, nil
}

func (s *registryService) CreateModel(ctx context.Context, actor string, req dto.CreateModelRequest) (*dto.RegistryEntryResponse, error) {
	code, name, err := registryInput(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	m := &model.SKUModel{Name: name, Code: code, Description: req.Description}
	if err := s.repo.CreateModel(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &DuplicateCodeError{Registry: "model", Code: code}
		}
		return nil, err
	}
	s.audit(ctx, actor, "model", code, name)
	return &dto.RegistryEntryResponse{ID: m.ID.String(), Name: m.Name, Code: m.Code, Description: m.Description}, nil
}

func (s *registryService) ListColors(ctx context.Context, query string) ([]dto.RegistryEntryResponse, error) {
	colors, err := s.repo.ListColors(ctx, sku.Normalize(query))
	if err != nil {
		return nil, err
	}
	out := make([]dto.RegistryEntryResponse, 0, len(colors))
	for _, c := range colors {
		out = append(out, dto.RegistryEntryResponse{ID: c.ID.String(), Name: c.Name, Code: c.Code})
	}
	return out, nil
}

func (s *registryService) CreateColor(ctx context.Context, actor string, req dto.CreateColorRequest) (*dto.RegistryEntryResponse, error) {
	code, name, err := registryInput(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	c := &model.SKUColor{Name: name, Code: code}
	if err := s.repo.CreateColor(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &DuplicateCodeError{Registry: "color", Code: code}
		}
		return nil, err
	}
	s.audit(ctx, actor, "color", code, name)
	return &dto.RegistryEntryResponse{ID: c.ID.String(), Name: c.Name, Code: c.Code}, nil
}

func (s *registryService) ListSuppliers(ctx context.Context) ([]dto.SupplierResponse, error) {
	suppliers, err := s.suppliers.ListActive(ctx)
	if err != nil {
		return nil, &IntegrationError{Dependency: "supplier directory", Err: err}
	}
	out := make([]dto.SupplierResponse, 0, len(suppliers))
	for _, sup := range suppliers {
		out = append(out, dto.SupplierResponse{ID: sup.ID, Name: sup.Name})
	}
	return out, nil
}

func (s *registryService) AttributeValues() dto.AttributeValuesResponse {
	return dto.AttributeValuesResponse{Values: sku.Values(), Policy: string(s.sku.Policy())}
}

func registryInput(rawCode, rawName string) (code, name string, err error) {
	code, ok := sku.NormalizeCode(rawCode)
	if !ok {
		return "", "", NewValidationError("code", "len=3,numeric")
	}
	name = sku.Normalize(rawName)
	if name == "" {
		return "", "", NewValidationError("name", "required")
	}
	return code, name, nil
}

// audit records registry changes; a failed write is logged, not returned.
func (s *registryService) audit(ctx context.Context, actor, registry, code, name string) {
	a := &model.Activity{
		EntityType:  "registry",
		EntityID:    registry + ":" + code,
		Action:      "registered",
		Description: registry + " " + name + " registered as " + code,
		Actor:       actor,
	}
	if err := s.activity.Create(ctx, a); err != nil {
		log.Warn().Err(err).Str("registry", registry).Str("code", code).Msg("failed to write registry audit entry")
	}
}
