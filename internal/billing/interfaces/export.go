// Package interfaces renders reconciled billing sequences for download.
package interfaces

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	billing "meterdata-cloud/internal/billing/domain"
)

const dayLayout = "2006-01-02"

// BuildBillsPDF renders a billing sequence as a PDF, one summary row per
// period followed by that period's line items.
func BuildBillsPDF(utility, accountNumber string, bills []billing.Datum) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Billing History")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Utility: %s", utility))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Account: %s", accountNumber))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Periods: %d", len(bills)))
	pdf.Ln(8)

	for _, bill := range bills {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 6, bill.Start.Format(dayLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, bill.End.Format(dayLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, bill.Cost.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, formatOptional(bill.Used, "%.3f"), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, formatOptional(bill.Peak, "%.2f"), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, item := range bill.Items {
			pdf.CellFormat(100, 5, item.Description, "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 5, string(item.Kind), "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 5, item.Unit, "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 5, item.Total.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildBillsXLSX renders a billing sequence as a workbook with a periods
// sheet and a line-items sheet.
func BuildBillsXLSX(utility, accountNumber string, bills []billing.Datum) ([]byte, error) {
	f := excelize.NewFile()
	periodsSheet := "periods"
	itemsSheet := "items"
	f.SetSheetName("Sheet1", periodsSheet)
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(periodsSheet, "A1", "Utility")
	_ = f.SetCellValue(periodsSheet, "B1", utility)
	_ = f.SetCellValue(periodsSheet, "A2", "Account")
	_ = f.SetCellValue(periodsSheet, "B2", accountNumber)

	headers := []string{"Start", "End", "Statement", "Cost", "Used", "Peak", "Source Links"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		_ = f.SetCellValue(periodsSheet, cell, header)
	}
	for i, bill := range bills {
		row := i + 5
		_ = f.SetCellValue(periodsSheet, fmt.Sprintf("A%d", row), bill.Start.Format(dayLayout))
		_ = f.SetCellValue(periodsSheet, fmt.Sprintf("B%d", row), bill.End.Format(dayLayout))
		_ = f.SetCellValue(periodsSheet, fmt.Sprintf("C%d", row), bill.Statement.Format(dayLayout))
		cost, _ := bill.Cost.Float64()
		_ = f.SetCellValue(periodsSheet, fmt.Sprintf("D%d", row), cost)
		if bill.Used != nil {
			_ = f.SetCellValue(periodsSheet, fmt.Sprintf("E%d", row), *bill.Used)
		}
		if bill.Peak != nil {
			_ = f.SetCellValue(periodsSheet, fmt.Sprintf("F%d", row), *bill.Peak)
		}
		_ = f.SetCellValue(periodsSheet, fmt.Sprintf("G%d", row), strings.Join(bill.SourceLinks, "\n"))
	}

	_ = f.SetCellValue(itemsSheet, "A1", "Period Start")
	_ = f.SetCellValue(itemsSheet, "B1", "Description")
	_ = f.SetCellValue(itemsSheet, "C1", "Kind")
	_ = f.SetCellValue(itemsSheet, "D1", "Unit")
	_ = f.SetCellValue(itemsSheet, "E1", "Quantity")
	_ = f.SetCellValue(itemsSheet, "F1", "Rate")
	_ = f.SetCellValue(itemsSheet, "G1", "Total")
	row := 2
	for _, bill := range bills {
		for _, item := range bill.Items {
			_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), bill.Start.Format(dayLayout))
			_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), item.Description)
			_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), string(item.Kind))
			_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), item.Unit)
			_ = f.SetCellValue(itemsSheet, fmt.Sprintf("E%d", row), item.Quantity)
			_ = f.SetCellValue(itemsSheet, fmt.Sprintf("F%d", row), item.Rate)
			total, _ := item.Total.Float64()
			_ = f.SetCellValue(itemsSheet, fmt.Sprintf("G%d", row), total)
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatOptional(value *float64, format string) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf(format, *value)
}
