package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
)

const (
	sheetSummary  = "Matrix"
	sheetProducts = "Products"
)

// MatrixReportXLSX renders the full classification as a two-sheet workbook:
// the nine-cell matrix with counts, value sums and coverage, and the ranked
// product list. Meant for the monthly planning meeting, not for machines;
// machine consumers use the CSV export.
func (s *AnalyticsService) MatrixReportXLSX(ctx context.Context, pharmacyID string, window domain.Window) ([]byte, error) {
	snapshot, err := s.Matrix(ctx, pharmacyID, window)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetProducts); err != nil {
		return nil, fmt.Errorf("create products sheet: %w", err)
	}

	if err := writeSummarySheet(f, snapshot); err != nil {
		return nil, err
	}
	if err := writeProductsSheet(f, snapshot); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, snapshot *domain.MatrixSnapshot) error {
	set := func(cell string, value interface{}) {
		f.SetCellValue(sheetSummary, cell, value)
	}

	set("A1", "Pharmacy")
	set("B1", snapshot.PharmacyID)
	set("A2", "Window")
	set("B2", fmt.Sprintf("%s to %s",
		snapshot.Window.From.Format("2006-01-02"),
		snapshot.Window.To.Format("2006-01-02")))
	set("A3", "Computed")
	set("B3", snapshot.ComputedAt.Format("2006-01-02 15:04"))

	// Count grid with VED columns and ABC rows.
	set("B5", "V")
	set("C5", "E")
	set("D5", "D")
	columns := map[domain.VEDClass]string{
		domain.VEDClassVital:     "B",
		domain.VEDClassEssential: "C",
		domain.VEDClassDesirable: "D",
	}
	rows := map[domain.ABCClass]int{
		domain.ABCClassA: 6,
		domain.ABCClassB: 7,
		domain.ABCClassC: 8,
	}
	for abc, row := range rows {
		set(fmt.Sprintf("A%d", row), string(abc))
		for ved, col := range columns {
			key := domain.NewCellKey(abc, ved)
			set(fmt.Sprintf("%s%d", col, row), snapshot.Classification.CellCount[key])
		}
	}

	set("A10", "Value per cell")
	valueRows := map[domain.ABCClass]int{
		domain.ABCClassA: 11,
		domain.ABCClassB: 12,
		domain.ABCClassC: 13,
	}
	for abc, row := range valueRows {
		set(fmt.Sprintf("A%d", row), string(abc))
		for ved, col := range columns {
			key := domain.NewCellKey(abc, ved)
			value, _ := snapshot.Classification.CellValue[key].Float64()
			set(fmt.Sprintf("%s%d", col, row), value)
		}
	}

	pctA, _ := snapshot.Classification.Coverage.PctA.Float64()
	pctB, _ := snapshot.Classification.Coverage.PctB.Float64()
	pctC, _ := snapshot.Classification.Coverage.PctC.Float64()
	set("A15", "Coverage A %")
	set("B15", pctA)
	set("A16", "Coverage B %")
	set("B16", pctB)
	set("A17", "Coverage C %")
	set("B17", pctC)

	if len(snapshot.Warnings) > 0 {
		set("A19", "Warnings")
		set("B19", len(snapshot.Warnings))
	}

	return nil
}

func writeProductsSheet(f *excelize.File, snapshot *domain.MatrixSnapshot) error {
	headers := []string{"Name", "Category", "ABC", "VED", "Qty", "Unit cost", "Consumption value"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetProducts, cell, header)
	}

	for row, item := range snapshot.Classification.Items {
		cost, _ := item.CostPrice.Float64()
		value, _ := item.ConsumptionValue.Float64()
		values := []interface{}{
			item.Name, item.CategoryName,
			string(item.ABCClass), string(item.VEDClass),
			item.TotalQty, cost, value,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			f.SetCellValue(sheetProducts, cell, v)
		}
	}

	return nil
}
