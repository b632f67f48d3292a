package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopunch/punch"
)

var timestampLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/06 3:04:05 PM",
}

// parseLine attributes tokens from the end: the tail block (id, date, time, meridiem and
// ignorable constants) has a fixed width, the name takes everything between prefix and tail.
func parseLine(number int, line string, layout Layout) (punch.Record, *MalformedLineError) {
	tokens := strings.Fields(line)
	if len(tokens) < layout.MinTokens() {
		return punch.Record{}, &MalformedLineError{
			Line:   number,
			Reason: fmt.Sprintf("expected at least %d fields, got %d", layout.MinTokens(), len(tokens)),
		}
	}

	tailStart := len(tokens) - layout.trailingCount()
	tail := tokens[tailStart:]
	name := strings.Join(tokens[layout.prefixCount():tailStart], " ")

	id, err := parseEmployeeID(tail[0])
	if err != nil {
		return punch.Record{}, &MalformedLineError{Line: number, Reason: "invalid employee id", Err: err}
	}

	timestamp, err := parseTimestamp(tail[1], tail[2], tail[3])
	if err != nil {
		return punch.Record{}, &MalformedLineError{Line: number, Reason: "invalid timestamp", Err: err}
	}

	return punch.Record{
		EmployeeID:   id,
		EmployeeName: name,
		Timestamp:    timestamp,
		Line:         number,
	}, nil
}

func parseEmployeeID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse employee id %q: %w", raw, err)
	}
	if id < 0 {
		return 0, fmt.Errorf("employee id must not be negative: %d", id)
	}
	return id, nil
}

// parseTimestamp reads the month/day/year, 12-hour clock and meridiem tokens as UTC wall time.
func parseTimestamp(dateValue, clockValue, meridiem string) (time.Time, error) {
	// time.Parse accepts fractional seconds after "05"; the log has whole seconds only.
	if strings.ContainsAny(clockValue, ".,") {
		return time.Time{}, fmt.Errorf("unsupported time format: %q", clockValue)
	}
	value := dateValue + " " + clockValue + " " + strings.ToUpper(meridiem)
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date/time format: %q", value)
}
