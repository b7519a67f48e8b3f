// =============================================================================
// NEM12 Parser - XLSX Writer
// =============================================================================
//
// This module exports parsed meter reads to an XLSX workbook with two
// sheets:
//
//   | MeterReads |            |         |       |
//   |------------|------------|---------|-------|
//   | NMI        | EnergyUnit | Volumes | Total |
//
//   | Volumes    |            |          |         |
//   |------------|------------|----------|---------|
//   | NMI        | Date       | Quantity | Quality |
//
// Quantities and totals are written as text so that no precision is lost
// converting to a spreadsheet float.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/nem12-parser/internal/nem12"
)

// Sheet names.
const (
	SheetMeterReads = "MeterReads"
	SheetVolumes    = "Volumes"
)

// DateLayout is the layout of the Date column.
const DateLayout = "2006-01-02"

var (
	meterReadHeader = []any{"NMI", "EnergyUnit", "Volumes", "Total"}
	volumeHeader    = []any{"NMI", "Date", "Quantity", "Quality"}
)

// Build returns a workbook holding reads. The caller must Close it.
func Build(reads []*nem12.MeterRead) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetMeterReads); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetVolumes); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeSheets(f, reads); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Save renders reads as an XLSX workbook at path.
func Save(path string, reads []*nem12.MeterRead) error {
	f, err := Build(reads)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSheets(f *excelize.File, reads []*nem12.MeterRead) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, SheetMeterReads, 1, meterReadHeader); err != nil {
		return err
	}
	if err := writeRow(f, SheetVolumes, 1, volumeHeader); err != nil {
		return err
	}
	for _, sheet := range []string{SheetMeterReads, SheetVolumes} {
		if err := f.SetCellStyle(sheet, "A1", "D1", bold); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	volumeRow := 2
	for i, read := range reads {
		row := []any{read.NMI(), string(read.EnergyUnit()), read.Len(), read.TotalVolume().String()}
		if err := writeRow(f, SheetMeterReads, i+2, row); err != nil {
			return err
		}

		for _, v := range read.Volumes() {
			row := []any{read.NMI(), v.Date.Format(DateLayout), v.Volume.String(), string(v.Quality)}
			if err := writeRow(f, SheetVolumes, volumeRow, row); err != nil {
				return err
			}
			volumeRow++
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
