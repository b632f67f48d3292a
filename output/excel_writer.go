package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"gopunch/attendance"
)

type ExcelWriter struct {
	Sentinels Sentinels
}

func (w *ExcelWriter) Write(out io.Writer, rows []attendance.Row) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), SheetName); err != nil {
		return &ExportError{Format: FormatExcel, Err: fmt.Errorf("rename sheet: %w", err)}
	}

	for col, header := range Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(SheetName, cell, header); err != nil {
			return &ExportError{Format: FormatExcel, Err: fmt.Errorf("set excel header %s: %w", cell, err)}
		}
	}

	for i, row := range rows {
		values := formatRow(row, w.Sentinels)
		cells := make([]any, len(values))
		cells[0] = row.EmployeeID
		for col := 1; col < len(values); col++ {
			cells[col] = values[col]
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := file.SetSheetRow(SheetName, cell, &cells); err != nil {
			return &ExportError{Format: FormatExcel, Err: fmt.Errorf("set excel row %s: %w", cell, err)}
		}
	}

	if err := file.SetColWidth(SheetName, "B", "B", 28); err != nil {
		return &ExportError{Format: FormatExcel, Err: fmt.Errorf("set column width: %w", err)}
	}

	if _, err := file.WriteTo(out); err != nil {
		return &ExportError{Format: FormatExcel, Err: fmt.Errorf("write excel output: %w", err)}
	}

	return nil
}
