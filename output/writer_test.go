package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"gopunch/attendance"
)

func sampleRows() []attendance.Row {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	return []attendance.Row{
		{
			EmployeeID:   3,
			EmployeeName: "John Q Public",
			Date:         day,
			CheckIn:      attendance.Mark{At: day.Add(9*time.Hour + time.Minute), Valid: true},
			CheckOut:     attendance.Mark{At: day.Add(18*time.Hour + 2*time.Minute), Valid: true},
			Punches:      4,
		},
		{
			EmployeeID:   3,
			EmployeeName: "John Q Public",
			Date:         day.AddDate(0, 0, 1),
			CheckIn:      attendance.Mark{At: day.AddDate(0, 0, 1).Add(14 * time.Hour), Valid: true},
			Punches:      1,
		},
		{
			EmployeeID:   9,
			EmployeeName: "محمد",
			Date:         day,
			CheckOut:     attendance.Mark{At: day.Add(14*time.Hour + time.Second), Valid: true},
			Punches:      1,
		},
	}
}

func TestCSVWriter_WritesFiveColumnsWithSentinels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := &CSVWriter{Sentinels: DefaultSentinels()}
	if err := writer.Write(&buf, sampleRows()); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	want := "ID,Employee Name,Date,Check-In,Check-Out\n" +
		"3,John Q Public,2026-01-05,09:01:00,18:02:00\n" +
		"3,John Q Public,2026-01-06,14:00:00,no logout\n" +
		"9,محمد,2026-01-05,no login,14:00:01\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv output:\n%s", buf.String())
	}
}

func TestExcelWriter_RoundTrip(t *testing.T) {
	t.Parallel()

	sentinels, err := SentinelsForStyle("title")
	if err != nil {
		t.Fatalf("sentinels: %v", err)
	}

	var buf bytes.Buffer
	if err := (&ExcelWriter{Sentinels: sentinels}).Write(&buf, sampleRows()); err != nil {
		t.Fatalf("write excel: %v", err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open written workbook: %v", err)
	}
	defer file.Close()

	if sheets := file.GetSheetList(); !reflect.DeepEqual(sheets, []string{SheetName}) {
		t.Fatalf("expected single sheet %s, got %v", SheetName, sheets)
	}

	rows, err := file.GetRows(SheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	want := [][]string{
		Headers,
		{"3", "John Q Public", "2026-01-05", "09:01:00", "18:02:00"},
		{"3", "John Q Public", "2026-01-06", "14:00:00", "No Logout"},
		{"9", "محمد", "2026-01-05", "No Login", "14:00:01"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestWriteFile_UnsupportedFormatLeavesNoOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.ods")
	err := WriteFile(path, "ods", sampleRows(), DefaultSentinels())

	var exportErr *ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("expected ExportError, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file, stat returned %v", statErr)
	}
}

func TestWriteFile_WritesCSV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "attendance.csv")
	if err := WriteFile(path, DetectFormat(path), sampleRows(), DefaultSentinels()); err != nil {
		t.Fatalf("write file: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("ID,Employee Name,Date,Check-In,Check-Out\n")) {
		t.Fatalf("unexpected content: %s", content)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the output file, got %d entries", len(entries))
	}
}

func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	if DetectFormat("a.CSV") != FormatCSV || DetectFormat("a.xlsx") != FormatExcel || DetectFormat("noext") != FormatExcel {
		t.Fatalf("unexpected format detection")
	}
	if format, err := CanonicalFormat(" XLSX "); err != nil || format != FormatExcel {
		t.Fatalf("unexpected canonical format %q (%v)", format, err)
	}
	if _, err := CanonicalFormat("pdf"); err == nil {
		t.Fatalf("expected error for pdf")
	}
	if Extension("csv") != ".csv" || Extension("excel") != ".xlsx" {
		t.Fatalf("unexpected extensions")
	}
}

func TestSentinelsForStyle(t *testing.T) {
	t.Parallel()

	lower, err := SentinelsForStyle("")
	if err != nil || lower.NoLogin != "no login" || lower.NoLogout != "no logout" {
		t.Fatalf("unexpected default sentinels: %+v (%v)", lower, err)
	}
	if _, err := SentinelsForStyle("upper"); err == nil {
		t.Fatalf("expected error for unsupported style")
	}
}
