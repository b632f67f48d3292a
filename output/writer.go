package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopunch/attendance"
	"gopunch/internal/timeutil"
)

const (
	FormatExcel = "excel"
	FormatCSV   = "csv"

	SheetName  = "Attendance_Summary"
	dateLayout = "2006-01-02"
)

// Headers are the exported columns, in order.
var Headers = []string{"ID", "Employee Name", "Date", "Check-In", "Check-Out"}

type Writer interface {
	Write(w io.Writer, rows []attendance.Row) error
}

func WriterForFormat(format string, sentinels Sentinels) (Writer, error) {
	switch normalizeFormat(format) {
	case FormatCSV:
		return &CSVWriter{Sentinels: sentinels}, nil
	case FormatExcel, "xlsx":
		return &ExcelWriter{Sentinels: sentinels}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// CanonicalFormat maps format aliases onto FormatExcel or FormatCSV.
func CanonicalFormat(format string) (string, error) {
	switch normalizeFormat(format) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatExcel, "xlsx":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

func DetectFormat(path string) string {
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".") {
	case "csv":
		return FormatCSV
	default:
		return FormatExcel
	}
}

func Extension(format string) string {
	if normalizeFormat(format) == FormatCSV {
		return ".csv"
	}
	return ".xlsx"
}

func ContentType(format string) string {
	if normalizeFormat(format) == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// WriteFile writes rows into a temporary file next to path and renames it into place,
// so a failed export never leaves a partial file behind.
func WriteFile(path, format string, rows []attendance.Row, sentinels Sentinels) error {
	writer, err := WriterForFormat(format, sentinels)
	if err != nil {
		return &ExportError{Format: format, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".gopunch-*"+filepath.Ext(path))
	if err != nil {
		return &ExportError{Format: format, Err: fmt.Errorf("create output %s: %w", path, err)}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := writer.Write(tmp, rows); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return &ExportError{Format: format, Err: fmt.Errorf("close output %s: %w", path, err)}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &ExportError{Format: format, Err: fmt.Errorf("move output into %s: %w", path, err)}
	}
	return nil
}

func formatRow(row attendance.Row, sentinels Sentinels) []string {
	return []string{
		fmt.Sprintf("%d", row.EmployeeID),
		row.EmployeeName,
		row.Date.Format(dateLayout),
		FormatMark(row.CheckIn, sentinels.NoLogin),
		FormatMark(row.CheckOut, sentinels.NoLogout),
	}
}

// FormatMark renders a boundary as HH:MM:SS, or the sentinel when it is unknown.
func FormatMark(mark attendance.Mark, sentinel string) string {
	if !mark.Valid {
		return sentinel
	}
	return mark.At.Format(timeutil.ClockLayout)
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
