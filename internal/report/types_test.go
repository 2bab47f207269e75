package report

import "testing"

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"MEMBERS", TypeMembers, false},
		{"members", TypeMembers, false},
		{" Revenue ", TypeRevenue, false},
		{"CLASSES", TypeClasses, false},
		{"equipment", TypeEquipment, false},
		{"SYSTEM", TypeSystem, false},
		{"custom", TypeCustom, false},
		{"ATTENDANCE", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"pdf", FormatPDF, false},
		{"PDF", FormatPDF, false},
		{"Excel", FormatExcel, false},
		{"csv", FormatCSV, false},
		{"xlsx", "", true},
		{"docx", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatExtension(t *testing.T) {
	if got := FormatExcel.Extension(); got != "xlsx" {
		t.Errorf("Extension() = %q, want xlsx", got)
	}
	if got := FormatPDF.Extension(); got != "pdf" {
		t.Errorf("Extension() = %q, want pdf", got)
	}
	if got := FormatCSV.Extension(); got != "csv" {
		t.Errorf("Extension() = %q, want csv", got)
	}
}

func TestParseFrequency(t *testing.T) {
	if _, err := ParseFrequency("hourly"); err == nil {
		t.Error("ParseFrequency(hourly) expected error")
	}
	got, err := ParseFrequency("weekly")
	if err != nil {
		t.Fatalf("ParseFrequency() error = %v", err)
	}
	if got != FrequencyWeekly {
		t.Errorf("ParseFrequency() = %v, want %v", got, FrequencyWeekly)
	}
}
