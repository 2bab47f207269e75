package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ComputeNextRun calculates when a schedule should fire next, relative to
// now. It returns nil when the schedule is unrecognized so callers keep the
// report's existing next_run_at instead of clearing it.
//
// Called on both success and failure paths of a run; a report that keeps
// failing still moves forward instead of being re-selected every poll.
func ComputeNextRun(now time.Time, s Schedule) *time.Time {
	if s.Cron != "" {
		schedule, err := cronParser.Parse(s.Cron)
		if err != nil {
			return nil
		}
		next := schedule.Next(now)
		return &next
	}

	var next time.Time
	switch s.Frequency {
	case FrequencyDaily:
		next = now.AddDate(0, 0, 1)
	case FrequencyWeekly:
		next = now.AddDate(0, 0, 7)
	case FrequencyMonthly:
		next = now.AddDate(0, 1, 0)
	default:
		return nil
	}

	if hour, minute, ok := parseTimeOfDay(s.TimeOfDay); ok {
		next = time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, next.Location())
	}

	return &next
}

// parseTimeOfDay parses an "HH:MM" 24-hour time string.
func parseTimeOfDay(s string) (hour, minute int, ok bool) {
	if s == "" {
		return 0, 0, false
	}

	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}

	return hour, minute, true
}
