package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DisplayLayout is the date format used across screens: 25/10/2026 às 14:00
const DisplayLayout = "02/01/2006 às 15:04"

// isoLayout matches what the API expects (JavaScript's toISOString)
const isoLayout = "2006-01-02T15:04:05.000Z"

var (
	dateTimeRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:\s+(?:às\s+)?|[@-])(\d{1,2}):(\d{2})$`)
	dateOnlyRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	relativeRegex = regexp.MustCompile(`^(?:em\s+|in\s+)?(\d+)\s*(hour|hours|hora|horas|h|day|days|dia|dias|d|week|weeks|semana|semanas|w)$`)
	dayWordRegex  = regexp.MustCompile(`^(hoje|today|amanhã|amanha|tomorrow)(?:\s+(?:às\s+)?(\d{1,2}):(\d{2}))?$`)
)

// localLayouts are the zone-less forms: HTML datetime-local and server LocalDateTime
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// defaultHour is used when only a day is given
const defaultHour = 9

// ParseDateTime parses the appointment date formats accepted by the forms
// Supported formats:
// - dd/mm/yyyy HH:mm (e.g., "25/10/2026 14:00", "25/10/2026 às 14:00")
// - dd/mm/yyyy (09:00 that day)
// - yyyy-mm-ddTHH:mm and RFC3339
// - X hours, X days, X weeks (also "3 dias", "em 2 semanas")
// - hoje HH:mm, amanhã HH:mm
func ParseDateTime(input string) (time.Time, error) {
	return ParseDateTimeAt(input, time.Now())
}

// ParseDateTimeAt is ParseDateTime relative to now
func ParseDateTimeAt(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}

	// Try dd/mm/yyyy first, the format the screens display
	if t, err := parseDateFormat(input, now.Location()); err == nil {
		return t, nil
	}

	if t, err := ParseTimestamp(input); err == nil {
		return t, nil
	}

	lower := strings.ToLower(input)
	if t, err := parseDayWord(lower, now); err == nil {
		return t, nil
	}

	if t, err := parseRelativeTime(lower, now); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid date format. Use: dd/mm/yyyy HH:mm, yyyy-mm-ddTHH:mm, hoje HH:mm, amanhã HH:mm or X days")
}

// parseDateFormat parses dd/mm/yyyy with an optional HH:mm
func parseDateFormat(input string, loc *time.Location) (time.Time, error) {
	hour, minute := defaultHour, 0
	var day, month, year int

	if matches := dateTimeRegex.FindStringSubmatch(input); len(matches) == 6 {
		day, _ = strconv.Atoi(matches[1])
		month, _ = strconv.Atoi(matches[2])
		year, _ = strconv.Atoi(matches[3])
		hour, _ = strconv.Atoi(matches[4])
		minute, _ = strconv.Atoi(matches[5])
	} else if matches := dateOnlyRegex.FindStringSubmatch(input); len(matches) == 4 {
		day, _ = strconv.Atoi(matches[1])
		month, _ = strconv.Atoi(matches[2])
		year, _ = strconv.Atoi(matches[3])
	} else {
		return time.Time{}, fmt.Errorf("invalid date format")
	}

	// Validate ranges
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return time.Time{}, fmt.Errorf("year must be between 2000 and 2100")
	}
	if err := checkClock(hour, minute); err != nil {
		return time.Time{}, err
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)

	// time.Date normalizes 31/02 into March
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, fmt.Errorf("invalid date")
	}

	return t, nil
}

// parseDayWord parses "hoje 14:00" and "amanhã 09:30"
func parseDayWord(input string, now time.Time) (time.Time, error) {
	matches := dayWordRegex.FindStringSubmatch(input)
	if len(matches) != 4 {
		return time.Time{}, fmt.Errorf("invalid day word")
	}

	hour, minute := defaultHour, 0
	if matches[2] != "" {
		hour, _ = strconv.Atoi(matches[2])
		minute, _ = strconv.Atoi(matches[3])
		if err := checkClock(hour, minute); err != nil {
			return time.Time{}, err
		}
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	switch matches[1] {
	case "amanhã", "amanha", "tomorrow":
		day = day.AddDate(0, 0, 1)
	}
	return day, nil
}

// parseRelativeTime parses "3 days", "24 hours", "2 semanas"
func parseRelativeTime(input string, now time.Time) (time.Time, error) {
	matches := relativeRegex.FindStringSubmatch(input)
	if len(matches) != 3 {
		return time.Time{}, fmt.Errorf("invalid relative time format")
	}

	amount, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid number")
	}

	base := now.Truncate(time.Minute)

	switch matches[2] {
	case "hour", "hours", "hora", "horas", "h":
		if amount < 1 || amount > 8760 { // Max 1 year in hours
			return time.Time{}, fmt.Errorf("hours must be between 1 and 8760")
		}
		return base.Add(time.Duration(amount) * time.Hour), nil

	case "day", "days", "dia", "dias", "d":
		if amount < 1 || amount > 365 {
			return time.Time{}, fmt.Errorf("days must be between 1 and 365")
		}
		return base.AddDate(0, 0, amount), nil

	case "week", "weeks", "semana", "semanas", "w":
		if amount < 1 || amount > 52 {
			return time.Time{}, fmt.Errorf("weeks must be between 1 and 52")
		}
		return base.AddDate(0, 0, amount*7), nil

	default:
		return time.Time{}, fmt.Errorf("unsupported time unit")
	}
}

func checkClock(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour must be between 0 and 23")
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("minute must be between 0 and 59")
	}
	return nil
}

// ParseTimestamp parses a timestamp as the API sends it: RFC3339 or a zone-less
// local date time
func ParseTimestamp(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, input, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", input)
}

// ToISO formats t the way the API stores appointment dates (UTC, milliseconds)
func ToISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// FormatDateTime formats t for display in local time
func FormatDateTime(t time.Time) string {
	return t.Local().Format(DisplayLayout)
}

// FormatTimestamp formats an API timestamp for display, returning it unchanged
// when it cannot be parsed
func FormatTimestamp(ts string) string {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return FormatDateTime(t)
}

var weekdays = [...]string{"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"}

// FormatDay labels a calendar day relative to now for the agenda headers
func FormatDay(day, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	d := day.In(now.Location())
	target := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
	daysDiff := int(math.Round(target.Sub(today).Hours() / 24))

	// Always show the actual date to avoid confusion
	dateStr := target.Format("02/01/2006")

	switch daysDiff {
	case 0:
		return fmt.Sprintf("Hoje (%s)", dateStr)
	case 1:
		return fmt.Sprintf("Amanhã (%s)", dateStr)
	case -1:
		return fmt.Sprintf("Ontem (%s)", dateStr)
	default:
		return fmt.Sprintf("%s (%s)", weekdays[target.Weekday()], dateStr)
	}
}
