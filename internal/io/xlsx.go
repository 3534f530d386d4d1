package io

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
	"github.com/xuri/excelize/v2"
)

const foldSheet = "Sheet1"

// Workbook collects the sheets of a results spreadsheet
type Workbook struct {
	Folds   *Table
	Summary *Table
	// Extra matrices written one per sheet, e.g. the summed confusion matrix
	Matrices map[string]*mat64.Dense
}

// WorkbookToXlsx saves the workbook: per-fold table on the first sheet, summary and matrices after it
func WorkbookToXlsx(path string, wb *Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	if wb.Folds != nil {
		if err := tableToSheet(f, foldSheet, wb.Folds); err != nil {
			return fmt.Errorf("[WorkbookToXlsx] %w", err)
		}
	}

	if wb.Summary != nil {
		if _, err := f.NewSheet("Summary"); err != nil {
			return fmt.Errorf("[WorkbookToXlsx] %w", err)
		}
		if err := tableToSheet(f, "Summary", wb.Summary); err != nil {
			return fmt.Errorf("[WorkbookToXlsx] %w", err)
		}
	}

	for name, m := range wb.Matrices {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("[WorkbookToXlsx] %w", err)
		}
		if err := matrixToSheet(f, name, m); err != nil {
			return fmt.Errorf("[WorkbookToXlsx] %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("[WorkbookToXlsx] Failed to save %s: %w", path, err)
	}

	return nil
}

func tableToSheet(f *excelize.File, sheet string, table *Table) error {
	if err := table.check(); err != nil {
		return err
	}

	offset := 0
	if table.Index != nil {
		offset = 1
		for row, label := range table.Index {
			cell, err := excelize.CoordinatesToCellName(1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, label); err != nil {
				return err
			}
		}
	}

	for col, name := range table.Header {
		cell, err := excelize.CoordinatesToCellName(col+1+offset, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}

		for row, value := range table.Columns[col] {
			// undefined statistics stay blank
			if math.IsNaN(value) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1+offset, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	return nil
}

func matrixToSheet(f *excelize.File, sheet string, m *mat64.Dense) error {
	rows, _ := m.Dims()

	for i := 0; i < rows; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := append([]float64(nil), m.RawRowView(i)...)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return nil
}
