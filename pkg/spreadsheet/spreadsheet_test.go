package spreadsheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"mails.xlsx", FormatXLSX, false},
		{"MAILS.XLSX", FormatXLSX, false},
		{"export.csv", FormatCSV, false},
		{"notes.txt", "", true},
		{"legacy.xls", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := DetectFormat(tt.name)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("DetectFormat(%q) error = %v, want ErrUnsupportedFormat", tt.name, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, %v; want %q", tt.name, got, err, tt.want)
		}
	}
}

func TestDecode_CSV(t *testing.T) {
	body := "\ufeff Name ,FROM,To,Document,Date\n" +
		"Invoice,Registry,Bursary,Invoice 2024,2024-03-01\n" +
		",,,,\n" +
		"Memo,Senate,Registry,Memo 12\n"

	rows, err := Decode(FormatCSV, strings.NewReader(body))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (blank row skipped)", len(rows))
	}
	if rows[0]["name"] != "Invoice" || rows[0]["from"] != "Registry" || rows[0]["date"] != "2024-03-01" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1]["to"] != "Registry" || rows[1]["date"] != "" {
		t.Errorf("row 1 = %v", rows[1])
	}
}

func TestDecode_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Sender", "Recipient", "Document", "Status"}); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if err := f.SetSheetRow(sheet, "A2", &[]interface{}{"Registry", "Bursary", "Invoice 2024", "completed"}); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	rows, err := Decode(FormatXLSX, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0]["sender"] != "Registry" || rows[0]["status"] != "completed" {
		t.Errorf("row = %v", rows[0])
	}
}

func TestDecode_XLSXCorrupt(t *testing.T) {
	if _, err := Decode(FormatXLSX, strings.NewReader("not a zip")); err == nil {
		t.Fatal("expected error for corrupt workbook")
	}
}

func TestDecode_XLSXDateCellKeepsSerial(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Sender", "Date"}); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if err := f.SetCellValue(sheet, "A2", "Registry"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	if err := f.SetCellValue(sheet, "B2", time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	// Excel's default short date, displayed as mm-dd-yy
	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}
	if err := f.SetCellStyle(sheet, "B2", "B2", style); err != nil {
		t.Fatalf("SetCellStyle: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	rows, err := Decode(FormatXLSX, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0]["sender"] != "Registry" {
		t.Errorf("sender = %q, shared strings must still resolve", rows[0]["sender"])
	}
	if got := rows[0]["date"]; !strings.HasPrefix(got, "45352.") {
		t.Errorf("date cell = %q, want raw serial 45352.xxx", got)
	}
}
