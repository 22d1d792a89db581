package loader

import (
	"strconv"
	"strings"
	"time"

	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

// excelEpoch is day 0 of the 1900 date system shifted by the two-day offset
// (1-based serials plus the phantom 29 Feb 1900)
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

const maxExcelSerial = 100000

// ParseDate accepts YYYY-MM-DD, DD/MM/YYYY HH:mm:ss, M/D/YYYY and Excel
// serial day numbers. The result is a UTC calendar date.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return truncateDay(t), true
	}

	if strings.Contains(s, "/") {
		datePart := s
		dayFirst := false
		if strings.Contains(s, ":") {
			datePart = strings.Fields(s)[0]
			dayFirst = true
		}
		parts := strings.Split(datePart, "/")
		if len(parts) != 3 {
			return time.Time{}, false
		}
		a, errA := strconv.Atoi(parts[0])
		b, errB := strconv.Atoi(parts[1])
		year, errY := strconv.Atoi(parts[2])
		if errA != nil || errB != nil || errY != nil {
			return time.Time{}, false
		}
		month, dayOfMonth := a, b
		if dayFirst {
			month, dayOfMonth = b, a
		}
		return calendarDate(year, month, dayOfMonth)
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 || serial > maxExcelSerial {
			return time.Time{}, false
		}
		return excelEpoch.AddDate(0, 0, int(serial)), true
	}
	return time.Time{}, false
}

// calendarDate rejects values time.Date would silently normalize
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
