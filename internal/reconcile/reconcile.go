// Package reconcile compares counted against expected quantities for a receipt.
// Compute is pure: the same lines always produce the same Summary.
package reconcile

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Classification buckets the variance percentage.
type Classification string

const (
	VarianceNone  Classification = "none"
	VarianceMinor Classification = "minor"
	VarianceMajor Classification = "major"
)

// minorThresholdPct is the largest variance still classified as minor.
var minorThresholdPct = decimal.NewFromInt(5)

// LineInput is what the engine needs from a receipt line.
type LineInput struct {
	LineID   uuid.UUID
	SKUCode  string
	Expected int
	Counted  int
}

// LineResult is the per-line outcome. Diff = Counted - Expected.
type LineResult struct {
	LineID   uuid.UUID `json:"line_id"`
	SKUCode  string    `json:"sku_code"`
	Expected int       `json:"expected_qty"`
	Counted  int       `json:"counted_qty"`
	Diff     int       `json:"diff_qty"`
}

// Summary aggregates a receipt. TotalVariance is Σ|diff|, so a shortage on one
// line never cancels an overage on another; NetVariance keeps the sign.
type Summary struct {
	LineCount            int             `json:"line_count"`
	UnitCount            int             `json:"unit_count"`
	TotalExpected        int             `json:"total_expected"`
	TotalCounted         int             `json:"total_counted"`
	TotalVariance        int             `json:"total_variance"`
	NetVariance          int             `json:"net_variance"`
	VariancePct          decimal.Decimal `json:"variance_pct"`
	Classification       Classification  `json:"classification"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
	Lines                []LineResult    `json:"lines"`
}

// Compute builds the Summary for lines. unitCount is reported as-is.
func Compute(lines []LineInput, unitCount int) Summary {
	s := Summary{
		LineCount: len(lines),
		UnitCount: unitCount,
		Lines:     make([]LineResult, 0, len(lines)),
	}
	for _, l := range lines {
		diff := l.Counted - l.Expected
		s.TotalExpected += l.Expected
		s.TotalCounted += l.Counted
		s.NetVariance += diff
		s.TotalVariance += abs(diff)
		s.Lines = append(s.Lines, LineResult{
			LineID:   l.LineID,
			SKUCode:  l.SKUCode,
			Expected: l.Expected,
			Counted:  l.Counted,
			Diff:     diff,
		})
	}

	s.VariancePct = variancePct(s.TotalVariance, s.TotalExpected)
	s.Classification = classify(s.TotalVariance, s.VariancePct)
	s.RequiresConfirmation = s.TotalVariance != 0
	return s
}

// variancePct is total/expected*100 rounded to 2 places. With nothing
// expected any counted item is a 100% variance.
func variancePct(total, expected int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	if expected == 0 {
		return decimal.NewFromInt(100)
	}
	return decimal.NewFromInt(int64(total)).
		Div(decimal.NewFromInt(int64(expected))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

func classify(total int, pct decimal.Decimal) Classification {
	switch {
	case total == 0:
		return VarianceNone
	case pct.LessThanOrEqual(minorThresholdPct):
		return VarianceMinor
	default:
		return VarianceMajor
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
