package infra

// pdf.go: reconciliation report PDF using go-pdf/fpdf.
// A4 portrait with:
//   - Receipt header (number, supplier, dates, reconciler)
//   - Totals and variance classification
//   - Line table (SKU, expected, counted, diff)
//
// The core fonts only cover Latin-1, so free text is reduced to ASCII and a
// fallback (supplier id, SKU) is printed when nothing printable is left.

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"jourdash/internal/reconcile"

	"github.com/go-pdf/fpdf"
)

// ReconciliationPDF is the data printed on the report.
type ReconciliationPDF struct {
	ReceiptNo    string
	SupplierID   string
	SupplierName string
	InvoiceNo    string
	ReceiptDate  time.Time
	ReconciledBy string
	ReconciledAt time.Time
	Summary      reconcile.Summary
}

// GenerateReconciliationPDF renders the report and returns the PDF bytes.
func GenerateReconciliationPDF(in ReconciliationPDF) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Goods Receipt Reconciliation", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Receipt "+in.ReceiptNo, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	info := [][2]string{
		{"Supplier", asciiOr(in.SupplierName, in.SupplierID)},
		{"Invoice", asciiOr(in.InvoiceNo, "-")},
		{"Receipt date", in.ReceiptDate.Format("2006-01-02")},
		{"Reconciled by", asciiOr(in.ReconciledBy, "-")},
		{"Reconciled at", in.ReconciledAt.UTC().Format("2006-01-02 15:04 UTC")},
	}
	for _, kv := range info {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(40, 5, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW-40, 5, kv[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Totals ───────────────────────────────────────────────────────────────
	s := in.Summary
	pdf.SetFillColor(217, 225, 242)
	pdf.SetFont("Helvetica", "B", 9)
	totals := []string{"Lines", "Units", "Expected", "Counted", "Variance", "Net", "Variance %"}
	colW := contentW / float64(len(totals))
	for _, h := range totals {
		pdf.CellFormat(colW, 6, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, v := range []string{
		fmt.Sprint(s.LineCount), fmt.Sprint(s.UnitCount), fmt.Sprint(s.TotalExpected),
		fmt.Sprint(s.TotalCounted), fmt.Sprint(s.TotalVariance), fmt.Sprintf("%+d", s.NetVariance),
		s.VariancePct.StringFixed(2),
	} {
		pdf.CellFormat(colW, 6, v, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Classification: "+strings.ToUpper(string(s.Classification)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Lines ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.46
	col2 := contentW * 0.18
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "SKU", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Expected", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col2, 6, "Counted", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col2, 6, "Diff", "B", 1, "R", false, 0, "")

	pdf.SetFont("Courier", "", 9)
	for _, l := range s.Lines {
		diff := fmt.Sprintf("%+d", l.Diff)
		if l.Diff == 0 {
			diff = "0"
		}
		pdf.CellFormat(col1, 5, l.SKUCode, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprint(l.Expected), "", 0, "R", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprint(l.Counted), "", 0, "R", false, 0, "")
		pdf.CellFormat(col2, 5, diff, "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

// asciiOr keeps the printable ASCII runes of s, or returns fallback when none remain.
func asciiOr(s, fallback string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	if out := strings.TrimSpace(b.String()); out != "" {
		return out
	}
	return fallback
}
