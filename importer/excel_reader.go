package importer

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// flattenExcelLog turns the first sheet of a workbook into punch log text.
// Terminal exports opened and re-saved in Excel keep one scan per row with
// one field per cell, so each row becomes one line with cells joined by a space.
func flattenExcelLog(data []byte) ([]byte, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open excel punch log: %w", err)
	}
	defer file.Close()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("excel punch log has no sheets")
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheetName, err)
	}

	var out bytes.Buffer
	for _, row := range rows {
		fields := make([]string, 0, len(row))
		for _, cell := range row {
			if cell = strings.TrimSpace(cell); cell != "" {
				fields = append(fields, cell)
			}
		}
		// Empty rows stay as blank lines so line numbers match spreadsheet rows.
		out.WriteString(strings.Join(fields, " "))
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

func isExcelName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	default:
		return false
	}
}
