package service

import (
	"context"
	"fmt"
	"io"

	"jourdash/internal/dto"
	"jourdash/internal/model"
	"jourdash/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ReportStore reads generated report files.
type ReportStore interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ReportService exposes the reconciliation report and the XLSX export.
type ReportService interface {
	Get(ctx context.Context, receiptID uuid.UUID) (*dto.ReportResponse, error)
	OpenPDF(ctx context.Context, receiptID uuid.UUID) (io.ReadCloser, string, error)
	Export(ctx context.Context, receiptID uuid.UUID) (*excelize.File, string, error)
}

type reportService struct {
	reports  repository.ReportRepository
	receipts repository.ReceiptRepository
	lines    repository.LineRepository
	units    repository.UnitRepository
	store    ReportStore
}

func NewReportService(
	reports repository.ReportRepository,
	receipts repository.ReceiptRepository,
	lines repository.LineRepository,
	units repository.UnitRepository,
	store ReportStore,
) ReportService {
	return &reportService{reports: reports, receipts: receipts, lines: lines, units: units, store: store}
}

func (s *reportService) Get(ctx context.Context, receiptID uuid.UUID) (*dto.ReportResponse, error) {
	rp, err := s.reports.FindByReceipt(ctx, receiptID)
	if err != nil {
		return nil, notFound(err)
	}
	return &dto.ReportResponse{
		ReceiptID:   rp.ReceiptID.String(),
		Status:      rp.Status,
		Available:   rp.Status == model.ReportGenerated && rp.ObjectKey != nil,
		RetryCount:  rp.RetryCount,
		NextRetryAt: rp.NextRetryAt,
		LastError:   rp.LastError,
		UpdatedAt:   rp.UpdatedAt,
	}, nil
}

func (s *reportService) OpenPDF(ctx context.Context, receiptID uuid.UUID) (io.ReadCloser, string, error) {
	rp, err := s.reports.FindByReceipt(ctx, receiptID)
	if err != nil {
		return nil, "", notFound(err)
	}
	if rp.Status != model.ReportGenerated || rp.ObjectKey == nil {
		return nil, "", &StateConflictError{Entity: "report", Field: "pdf", Status: rp.Status, Reason: "report is not generated yet"}
	}
	rc, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		return nil, "", notFound(err)
	}
	r, err := s.store.Open(ctx, *rp.ObjectKey)
	if err != nil {
		return nil, "", &IntegrationError{Dependency: "report storage", Err: err}
	}
	return r, rc.ReceiptNo + ".pdf", nil
}

var (
	lineExportHeaders = []string{
		"SKU", "Brand", "Gender", "Season", "Category", "Subcategory",
		"Model", "Model code", "Color", "Color code", "Size", "UOM",
		"Expected", "Counted", "Diff", "Notes",
	}
	unitExportHeaders = []string{"Barcode", "Tech code", "SKU", "Stage", "QC reason", "Location"}
)

// Export builds a workbook with a Lines sheet and a Units sheet.
func (s *reportService) Export(ctx context.Context, receiptID uuid.UUID) (*excelize.File, string, error) {
	rc, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		return nil, "", notFound(err)
	}
	lines, err := s.lines.ListByReceipt(ctx, receiptID)
	if err != nil {
		return nil, "", fmt.Errorf("list lines: %w", err)
	}
	units, err := s.units.ListByReceipt(ctx, receiptID)
	if err != nil {
		return nil, "", fmt.Errorf("list units: %w", err)
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "Lines")
	if _, err := f.NewSheet("Units"); err != nil {
		return nil, "", err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	writeHeader(f, "Lines", lineExportHeaders, headerStyle)
	writeHeader(f, "Units", unitExportHeaders, headerStyle)

	for i, l := range lines {
		row := i + 2
		values := []interface{}{
			l.SKUCode, l.Brand, l.Gender, l.Season, l.Category, l.Subcategory,
			l.ModelName, l.ModelCode, l.ColorName, l.ColorCode, l.Size, l.UOM,
			l.ExpectedQty, l.CountedQty, l.DiffQty(), l.Notes,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow("Lines", cell, &values); err != nil {
			return nil, "", err
		}
	}
	for i, u := range units {
		row := i + 2
		values := []interface{}{u.Barcode, u.TechCode, u.SKUCode, string(u.Stage), deref(u.QCReasonCode), deref(u.LocationCode)}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow("Units", cell, &values); err != nil {
			return nil, "", err
		}
	}

	f.SetColWidth("Lines", "A", "A", 18)
	f.SetColWidth("Units", "A", "B", 24)

	return f, rc.ReceiptNo + ".xlsx", nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
