// Package export renders expense listings as spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"spendlog/internal/core"
	"spendlog/internal/sheets"
)

const (
	SheetName       = "Expenses"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// amountColumn is the 1-based index of the Amount column in sheets.Header.
const amountColumn = 5

// WriteXLSX writes expenses as a single-sheet workbook: a bold header row,
// then one row per expense with the amount as a number, and a total row.
func WriteXLSX(w io.Writer, expenses []core.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create amount style: %w", err)
	}

	header := make([]any, len(sheets.Header))
	for i, h := range sheets.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	var total int64
	for i, e := range expenses {
		row := sheets.Row(e)
		row[amountColumn-1] = e.Amount.Float()
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
		total += e.Amount.Cents
	}

	totalRow := len(expenses) + 2
	labelCell, _ := excelize.CoordinatesToCellName(amountColumn-1, totalRow)
	totalCell, _ := excelize.CoordinatesToCellName(amountColumn, totalRow)
	if err := f.SetCellValue(SheetName, labelCell, "Total"); err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, totalCell, core.Money{Cents: total}.Float()); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, labelCell, labelCell, bold); err != nil {
		return err
	}

	firstAmount, _ := excelize.CoordinatesToCellName(amountColumn, 2)
	if err := f.SetCellStyle(SheetName, firstAmount, totalCell, money); err != nil {
		return fmt.Errorf("style amounts: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "D", "D", 40); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Filename names an export by the day it was produced.
func Filename(day core.Date) string {
	return "expenses-" + day.Format("2006-01-02") + ".xlsx"
}
