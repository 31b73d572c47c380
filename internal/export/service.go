// Package export renders extraction results as an XLSX workbook or schema-checked JSON.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ItemsSheet   = "Items"
	SummarySheet = "Summary"
)

var (
	itemHeaders = []string{
		"Budget File",
		"Code",
		"Description",
		"Unit",
		"Quantity",
		"Unit Price",
		"Total Price",
	}
	summaryHeaders = []string{
		"File",
		"Format",
		"Strategy",
		"Confidence",
		"Items",
		"Items Sum",
		"Subtotal",
		"Total",
		"Warnings",
	}
)

// Service produces XLSX bytes for one or more extraction results.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportXLSX returns a workbook with every line item on the Items sheet and one row per
// document on the Summary sheet. Nil results are skipped.
func (s *Service) ExportXLSX(results []*entity.ExtractionResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ItemsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	if err := writeHeaders(f, ItemsSheet, itemHeaders); err != nil {
		return nil, err
	}
	if err := writeHeaders(f, SummarySheet, summaryHeaders); err != nil {
		return nil, err
	}

	itemRow, summaryRow := 2, 2
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, it := range r.Items {
			err := writeRow(f, ItemsSheet, itemRow,
				r.Document.Name,
				it.Code,
				it.Description,
				it.Unit,
				number(it.Quantity),
				number(it.UnitPrice),
				number(it.TotalPrice),
			)
			if err != nil {
				return nil, err
			}
			itemRow++
		}

		err := writeRow(f, SummarySheet, summaryRow,
			r.Document.Name,
			string(r.Format),
			r.Strategy,
			r.Confidence,
			len(r.Items),
			r.ItemsTotal().InexactFloat64(),
			number(r.Totals.Subtotal),
			number(r.Totals.Total),
			truncate(strings.Join(r.Warnings, "; "), 500),
		)
		if err != nil {
			return nil, err
		}
		summaryRow++
	}

	_ = f.SetColWidth(ItemsSheet, "A", "A", 28) // file
	_ = f.SetColWidth(ItemsSheet, "B", "B", 14) // code
	_ = f.SetColWidth(ItemsSheet, "C", "C", 60) // description
	_ = f.SetColWidth(ItemsSheet, "D", "D", 8)
	_ = f.SetColWidth(ItemsSheet, "E", "G", 14) // amounts
	_ = f.SetColWidth(SummarySheet, "A", "A", 28)
	_ = f.SetColWidth(SummarySheet, "B", "H", 14)
	_ = f.SetColWidth(SummarySheet, "I", "I", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"documents", summaryRow-2,
		"rows", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	return writeRow(f, sheet, 1, values...)
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// number leaves missing amounts as empty cells.
func number(d decimal.NullDecimal) any {
	if !d.Valid {
		return ""
	}
	return d.Decimal.InexactFloat64()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
