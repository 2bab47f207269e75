// Package report defines scheduled report records and their persistence.
package report

import (
	"fmt"
	"strings"
	"time"
)

// Type identifies which domain a report draws its data from.
type Type string

const (
	TypeMembers   Type = "MEMBERS"
	TypeRevenue   Type = "REVENUE"
	TypeClasses   Type = "CLASSES"
	TypeEquipment Type = "EQUIPMENT"
	TypeSystem    Type = "SYSTEM"
	TypeCustom    Type = "CUSTOM"
)

// Format identifies the rendered artifact format.
type Format string

const (
	FormatPDF   Format = "PDF"
	FormatExcel Format = "EXCEL"
	FormatCSV   Format = "CSV"
)

// Frequency identifies how often a report recurs.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

// ParseType converts an untrusted string into a Type.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeMembers:
		return TypeMembers, nil
	case TypeRevenue:
		return TypeRevenue, nil
	case TypeClasses:
		return TypeClasses, nil
	case TypeEquipment:
		return TypeEquipment, nil
	case TypeSystem:
		return TypeSystem, nil
	case TypeCustom:
		return TypeCustom, nil
	default:
		return "", fmt.Errorf("unknown report type: %q", s)
	}
}

// ParseFormat converts an untrusted string into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToUpper(strings.TrimSpace(s))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatExcel:
		return FormatExcel, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown report format: %q", s)
	}
}

// Extension returns the artifact file extension for a format.
func (f Format) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return strings.ToLower(string(f))
}

// ParseFrequency converts an untrusted string into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToUpper(strings.TrimSpace(s))) {
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	default:
		return "", fmt.Errorf("unknown frequency: %q", s)
	}
}

// Schedule describes when a report recurs. TimeOfDay, when set ("HH:MM",
// 24h), pins the run to that wall-clock time instead of now+interval. Cron,
// when set, takes precedence over Frequency entirely.
type Schedule struct {
	Frequency Frequency
	TimeOfDay string
	Cron      string
}

// ScheduledReport is a persisted definition of what to generate, how often,
// and who receives it.
type ScheduledReport struct {
	ID         string
	Name       string
	Type       Type
	Format     Format
	Schedule   Schedule
	Recipients []string
	Filters    map[string]string
	IsActive   bool
	LastRunAt  *time.Time
	NextRunAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
