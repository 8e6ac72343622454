package service

import (
	"context"

	"jourdash/internal/dto"
)

// UnitCache holds scan lookups keyed by barcode. Implementations must treat
// every failure as a miss.
type UnitCache interface {
	Get(ctx context.Context, barcode string) (*dto.UnitResponse, bool)
	Set(ctx context.Context, u dto.UnitResponse)
	Invalidate(ctx context.Context, barcodes ...string)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*dto.UnitResponse, bool) { return nil, false }
func (noopCache) Set(context.Context, dto.UnitResponse)                 {}
func (noopCache) Invalidate(context.Context, ...string)                 {}
