package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func excelLog(t *testing.T, rows [][]any) []byte {
	t.Helper()

	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestReadFile_ReturnsTextUnchanged(t *testing.T) {
	t.Parallel()

	content := "This Company Ahmed 1 1/5/2026 9:00:00 AM FP\n"
	path := filepath.Join(t.TempDir(), "punches.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}

	data, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != content {
		t.Fatalf("expected raw content, got %q", data)
	}
}

func TestReadFile_MissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.txt")
	_, err := ReadFile(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to name the path, got %v", err)
	}
}

func TestLoad_FlattensWorkbookRows(t *testing.T) {
	t.Parallel()

	data := excelLog(t, [][]any{
		{"This", "Company", "Ahmed", "Ali", 1, "1/5/2026", "9:00:00", "AM", "FP"},
		{},
		{"This", "Company", "Ahmed", "Ali", 1, "1/5/2026", "5:00:00", "PM", "FP"},
	})

	text, err := Load("export.XLSX", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "This Company Ahmed Ali 1 1/5/2026 9:00:00 AM FP\n\nThis Company Ahmed Ali 1 1/5/2026 5:00:00 PM FP\n"
	if string(text) != want {
		t.Fatalf("unexpected flattened text:\n%q", text)
	}

	result, err := Parse(text, companyLayout())
	if err != nil {
		t.Fatalf("parse flattened log: %v", err)
	}
	if len(result.Records) != 2 || result.Records[1].Line != 3 {
		t.Fatalf("expected 2 records with spreadsheet line numbers, got %+v", result.Records)
	}
	if result.Records[0].EmployeeName != "Ahmed Ali" {
		t.Fatalf("unexpected name %q", result.Records[0].EmployeeName)
	}
}

func TestLoad_RejectsBrokenWorkbook(t *testing.T) {
	t.Parallel()

	if _, err := Load("broken.xlsx", []byte("not a zip archive")); err == nil {
		t.Fatalf("expected error for invalid workbook")
	}
}
