package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"gopunch/attendance"
)

type CSVWriter struct {
	Sentinels Sentinels
}

func (w *CSVWriter) Write(out io.Writer, rows []attendance.Row) error {
	writer := csv.NewWriter(out)

	if err := writer.Write(Headers); err != nil {
		return &ExportError{Format: FormatCSV, Err: fmt.Errorf("write csv headers: %w", err)}
	}

	for _, row := range rows {
		if err := writer.Write(formatRow(row, w.Sentinels)); err != nil {
			return &ExportError{Format: FormatCSV, Err: fmt.Errorf("write csv row: %w", err)}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return &ExportError{Format: FormatCSV, Err: fmt.Errorf("flush csv output: %w", err)}
	}

	return nil
}
