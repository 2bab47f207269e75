package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fitops/reportpipe/internal/aggregator"
	"github.com/fitops/reportpipe/internal/report"
)

func fixedRenderer() *Renderer {
	return &Renderer{Now: func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}}
}

func memberRows(n int) []map[string]any {
	rows := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, map[string]any{
			"name":           fmt.Sprintf("Member %03d", i),
			"email":          fmt.Sprintf("member%03d@example.com", i),
			"membershipType": "premium",
			"status":         "active",
			"joinDate":       "2023-06-15",
		})
	}
	return rows
}

func TestRender_CSV(t *testing.T) {
	r := fixedRenderer()
	ds := &aggregator.Dataset{Rows: memberRows(2)}

	out, err := r.ToCSV(report.TypeMembers, ds, Options{Title: "Active Members"})
	if err != nil {
		t.Fatalf("ToCSV() error = %v", err)
	}

	got := string(out)
	want := strings.Join([]string{
		"Active Members",
		"\"Members Report - generated Mar 1, 2024 12:00 UTC\"",
		"",
		"Total Records,2",
		"",
		"Name,Email,Membership,Status,Join Date",
		"Member 000,member000@example.com,premium,active,\"Jun 15, 2023\"",
		"Member 001,member001@example.com,premium,active,\"Jun 15, 2023\"",
		"",
	}, "\n")
	if got != want {
		t.Errorf("ToCSV() =\n%s\nwant\n%s", got, want)
	}
}

func TestRender_CSVDeterministic(t *testing.T) {
	r := fixedRenderer()
	ds := &aggregator.Dataset{Rows: memberRows(5)}

	first, err := r.ToCSV(report.TypeMembers, ds, Options{})
	if err != nil {
		t.Fatalf("ToCSV() error = %v", err)
	}
	second, err := r.ToCSV(report.TypeMembers, ds, Options{})
	if err != nil {
		t.Fatalf("ToCSV() error = %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("ToCSV() output differs across runs with a fixed clock")
	}
}

func TestRender_CSVSummary(t *testing.T) {
	r := fixedRenderer()
	ds := &aggregator.Dataset{Summary: map[string]any{
		"totalRevenue":     125000.5,
		"transactionCount": 812.0,
		"refundTotal":      430.0,
	}}

	out, err := r.ToCSV(report.TypeRevenue, ds, Options{})
	if err != nil {
		t.Fatalf("ToCSV() error = %v", err)
	}

	got := string(out)
	for _, line := range []string{
		"Revenue Report",
		"Total Revenue,\"$125,000.50\"",
		"Transactions,812",
		"Refund Total,430",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("ToCSV() missing %q in:\n%s", line, got)
		}
	}
}

func TestRender_PDF(t *testing.T) {
	r := fixedRenderer()
	ds := &aggregator.Dataset{Rows: memberRows(3)}

	out, err := r.ToPDF(report.TypeMembers, ds, Options{Title: "Members"})
	if err != nil {
		t.Fatalf("ToPDF() error = %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("ToPDF() output does not start with %%PDF: %q", out[:8])
	}
}

func TestRender_PDFRowCap(t *testing.T) {
	r := fixedRenderer()

	capped, err := r.ToPDF(report.TypeMembers, &aggregator.Dataset{Rows: memberRows(80)}, Options{})
	if err != nil {
		t.Fatalf("ToPDF() error = %v", err)
	}
	atCap, err := r.ToPDF(report.TypeMembers, &aggregator.Dataset{Rows: memberRows(pdfRowCap)}, Options{})
	if err != nil {
		t.Fatalf("ToPDF() error = %v", err)
	}

	// 30 extra rows beyond the cap may not grow the artifact much, but a
	// capped render must never shrink below the at-cap render by a page.
	if len(capped) == 0 || len(atCap) == 0 {
		t.Fatal("ToPDF() produced empty artifact")
	}

	// CSV carries the full dataset regardless of the cap.
	full, err := r.ToCSV(report.TypeMembers, &aggregator.Dataset{Rows: memberRows(80)}, Options{})
	if err != nil {
		t.Fatalf("ToCSV() error = %v", err)
	}
	if got := strings.Count(string(full), "\n"); got < 80 {
		t.Errorf("ToCSV() has %d lines, want at least 80 data rows", got)
	}
}

func TestRender_Excel(t *testing.T) {
	r := fixedRenderer()
	ds := &aggregator.Dataset{Rows: memberRows(4)}

	out, err := r.ToExcel(report.TypeMembers, ds, Options{Title: "Members"})
	if err != nil {
		t.Fatalf("ToExcel() error = %v", err)
	}
	// XLSX is a zip archive.
	if !bytes.HasPrefix(out, []byte("PK")) {
		t.Errorf("ToExcel() output is not a zip archive: %q", out[:4])
	}
}

func TestRender_UnknownTypeGenericFallback(t *testing.T) {
	r := fixedRenderer()
	ds := &aggregator.Dataset{Rows: []map[string]any{
		{"zebra": "z", "alpha": "a", "midKey": "m"},
	}}

	out, err := r.ToCSV(report.Type("ATTENDANCE"), ds, Options{Title: "Attendance"})
	if err != nil {
		t.Fatalf("ToCSV() error = %v for unknown type, want generic fallback", err)
	}

	got := string(out)
	// Columns derive from the row keys, sorted.
	if !strings.Contains(got, "Alpha,Mid Key,Zebra") {
		t.Errorf("ToCSV() headers not sorted generic columns:\n%s", got)
	}
	if !strings.Contains(got, "a,m,z") {
		t.Errorf("ToCSV() missing generic row:\n%s", got)
	}
}

func TestRender_UnsupportedFormat(t *testing.T) {
	r := fixedRenderer()

	_, err := r.Render(report.TypeMembers, &aggregator.Dataset{}, Options{}, report.Format("DOCX"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Render() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRender_EmptyDataset(t *testing.T) {
	r := fixedRenderer()

	for _, format := range []report.Format{report.FormatPDF, report.FormatExcel, report.FormatCSV} {
		if _, err := r.Render(report.TypeMembers, &aggregator.Dataset{}, Options{}, format); err != nil {
			t.Errorf("Render(%s) error = %v for empty dataset", format, err)
		}
		if _, err := r.Render(report.TypeMembers, nil, Options{}, format); err != nil {
			t.Errorf("Render(%s) error = %v for nil dataset", format, err)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{1234.5, "$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{-99.9, "-$99.90"},
	}
	for _, tt := range tests {
		if got := formatCurrency(tt.in); got != tt.want {
			t.Errorf("formatCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroupThousands(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1"},
		{"123", "123"},
		{"1234", "1,234"},
		{"1234567", "1,234,567"},
		{"1234.56", "1,234.56"},
	}
	for _, tt := range tests {
		if got := groupThousands(tt.in); got != tt.want {
			t.Errorf("groupThousands(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitleize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"membershipType", "Membership Type"},
		{"total_revenue", "Total Revenue"},
		{"name", "Name"},
		{"apiRequests", "Api Requests"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := titleize(tt.in); got != tt.want {
			t.Errorf("titleize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToDate(t *testing.T) {
	tests := []struct {
		in     any
		want   string
		wantOK bool
	}{
		{"2024-01-15T09:30:00Z", "Jan 15, 2024", true},
		{"2024-01-15", "Jan 15, 2024", true},
		{"2024-01-15 09:30:00", "Jan 15, 2024", true},
		{"not a date", "", false},
		{42, "", false},
	}
	for _, tt := range tests {
		got, ok := toDate(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("toDate(%v) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
