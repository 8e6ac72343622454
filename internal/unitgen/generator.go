// Package unitgen issues per-item identities for a receipt line: a globally
// unique 12-digit barcode and a time-ordered technical code.
package unitgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// BarcodeSequence is the allocator key shared by every receipt.
const BarcodeSequence = "seq:barcode"

// DefaultMaxAttempts bounds how many allocation rounds one Generate call may use.
const DefaultMaxAttempts = 5

var (
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidSKU       = errors.New("sku code is required")
	ErrBarcodeExhausted = errors.New("could not allocate unique barcodes")
)

// Sequencer hands out monotonically increasing integers per key.
type Sequencer interface {
	// Next reserves n values and returns the last one.
	Next(ctx context.Context, key string, n int64) (int64, error)
	// EnsureAtLeast raises the key to floor if it is lower.
	EnsureAtLeast(ctx context.Context, key string, floor int64) error
}

// BarcodeIndex checks candidates against barcodes already persisted.
type BarcodeIndex interface {
	ExistingBarcodes(ctx context.Context, barcodes []string) ([]string, error)
}

// Unit is a freshly generated identity, not yet persisted.
type Unit struct {
	SKUCode  string
	Barcode  string
	TechCode string
}

// Generator produces units. It is safe for concurrent use.
type Generator struct {
	seq         Sequencer
	index       BarcodeIndex
	node        *snowflake.Node
	maxAttempts int
}

// New creates a Generator. nodeID identifies this process for tech codes (0..1023).
func New(seq Sequencer, index BarcodeIndex, nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("unitgen: snowflake node: %w", err)
	}
	return &Generator{seq: seq, index: index, node: node, maxAttempts: DefaultMaxAttempts}, nil
}

// WithMaxAttempts overrides the allocation bound.
func (g *Generator) WithMaxAttempts(n int) *Generator {
	if n > 0 {
		g.maxAttempts = n
	}
	return g
}

// Generate returns quantity units sharing skuCode, each with a distinct barcode.
func (g *Generator) Generate(ctx context.Context, quantity int, skuCode string) ([]Unit, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if skuCode == "" {
		return nil, ErrInvalidSKU
	}

	barcodes, err := g.allocate(ctx, quantity)
	if err != nil {
		return nil, err
	}

	units := make([]Unit, 0, quantity)
	for _, bc := range barcodes {
		units = append(units, Unit{
			SKUCode:  skuCode,
			Barcode:  bc,
			TechCode: "TC-" + g.node.Generate().String(),
		})
	}
	return units, nil
}

// allocate draws serials until it holds n barcodes that are unused both in
// the batch and in the index.
func (g *Generator) allocate(ctx context.Context, n int) ([]string, error) {
	out := make([]string, 0, n)
	seen := make(map[string]struct{}, n)

	for attempt := 0; attempt < g.maxAttempts && len(out) < n; attempt++ {
		need := n - len(out)
		last, err := g.seq.Next(ctx, BarcodeSequence, int64(need))
		if err != nil {
			return nil, fmt.Errorf("unitgen: reserve serials: %w", err)
		}

		candidates := make([]string, 0, need)
		for s := last - int64(need) + 1; s <= last; s++ {
			bc, err := FromSerial(s)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[bc]; dup {
				continue
			}
			candidates = append(candidates, bc)
		}

		taken := map[string]bool{}
		if g.index != nil && len(candidates) > 0 {
			existing, err := g.index.ExistingBarcodes(ctx, candidates)
			if err != nil {
				return nil, fmt.Errorf("unitgen: check barcode index: %w", err)
			}
			for _, e := range existing {
				taken[e] = true
			}
		}

		for _, bc := range candidates {
			if taken[bc] {
				continue
			}
			seen[bc] = struct{}{}
			out = append(out, bc)
		}
	}

	if len(out) < n {
		return nil, fmt.Errorf("%w: %d of %d after %d attempts", ErrBarcodeExhausted, len(out), n, g.maxAttempts)
	}
	return out, nil
}

// SeedFromIndex raises the allocator above the highest serial already stored.
// maxBarcode is the largest barcode in the database ("" if none).
func SeedFromIndex(ctx context.Context, seq Sequencer, maxBarcode string) error {
	if maxBarcode == "" {
		return nil
	}
	serial, err := SerialOf(maxBarcode)
	if err != nil {
		return err
	}
	return seq.EnsureAtLeast(ctx, BarcodeSequence, serial)
}
