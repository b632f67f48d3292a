// Package attendance derives one Check-In/Check-Out pair per employee per calendar day
// from an unordered set of punch records.
package attendance

import (
	"cmp"
	"slices"
	"time"

	"gopunch/internal/timeutil"
	"gopunch/punch"
)

// DefaultSinglePunchCutoff is the last time of day at which a lone punch still counts as a check-in.
const DefaultSinglePunchCutoff = 14 * time.Hour

type Policy struct {
	SinglePunchCutoff time.Duration
}

func DefaultPolicy() Policy {
	return Policy{SinglePunchCutoff: DefaultSinglePunchCutoff}
}

// Mark is a boundary time of a workday. An invalid mark means the boundary could not be determined.
type Mark struct {
	At    time.Time
	Valid bool
}

func markAt(value time.Time) Mark {
	return Mark{At: value, Valid: true}
}

type Row struct {
	EmployeeID   int64
	EmployeeName string
	Date         time.Time
	CheckIn      Mark
	CheckOut     Mark
	Punches      int
}

// DayGroup holds every punch of one employee on one calendar day, ordered by time of day.
type DayGroup struct {
	EmployeeID   int64
	EmployeeName string
	Date         time.Time
	Punches      []time.Time
}

// GroupByDay stable-sorts the records by employee, date and time of day and partitions them
// by (employee, date). The name of a group is the first spelling in that order.
func GroupByDay(records []punch.Record) []DayGroup {
	if len(records) == 0 {
		return []DayGroup{}
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b punch.Record) int {
		if c := cmp.Compare(a.EmployeeID, b.EmployeeID); c != 0 {
			return c
		}
		if c := a.Date().Compare(b.Date()); c != 0 {
			return c
		}
		return cmp.Compare(timeutil.ClockOffset(a.Timestamp), timeutil.ClockOffset(b.Timestamp))
	})

	groups := make([]DayGroup, 0, len(sorted))
	for _, record := range sorted {
		date := record.Date()
		if n := len(groups); n > 0 && groups[n-1].EmployeeID == record.EmployeeID && timeutil.SameDay(groups[n-1].Date, date) {
			groups[n-1].Punches = append(groups[n-1].Punches, record.Timestamp)
			continue
		}
		groups = append(groups, DayGroup{
			EmployeeID:   record.EmployeeID,
			EmployeeName: record.EmployeeName,
			Date:         date,
			Punches:      []time.Time{record.Timestamp},
		})
	}

	return groups
}

// BuildRows produces exactly one row per (employee, date), sorted by employee id then date.
func BuildRows(records []punch.Record, policy Policy) []Row {
	groups := GroupByDay(records)
	rows := make([]Row, 0, len(groups))
	for _, group := range groups {
		rows = append(rows, summarizeDay(group, policy))
	}
	return rows
}

func summarizeDay(group DayGroup, policy Policy) Row {
	row := Row{
		EmployeeID:   group.EmployeeID,
		EmployeeName: group.EmployeeName,
		Date:         group.Date,
		Punches:      len(group.Punches),
	}

	first := group.Punches[0]
	if len(group.Punches) > 1 {
		row.CheckIn = markAt(first)
		row.CheckOut = markAt(group.Punches[len(group.Punches)-1])
		return row
	}

	// A lone morning punch means a forgotten check-out, a lone afternoon punch a forgotten check-in.
	if timeutil.ClockOffset(first) <= policy.SinglePunchCutoff {
		row.CheckIn = markAt(first)
	} else {
		row.CheckOut = markAt(first)
	}
	return row
}

type Summary struct {
	Employees       int
	Days            int
	Rows            int
	MissingCheckIn  int
	MissingCheckOut int
}

func Summarize(rows []Row) Summary {
	employees := make(map[int64]struct{}, len(rows))
	days := make(map[time.Time]struct{}, len(rows))
	summary := Summary{Rows: len(rows)}
	for _, row := range rows {
		employees[row.EmployeeID] = struct{}{}
		days[row.Date] = struct{}{}
		if !row.CheckIn.Valid {
			summary.MissingCheckIn++
		}
		if !row.CheckOut.Valid {
			summary.MissingCheckOut++
		}
	}
	summary.Employees = len(employees)
	summary.Days = len(days)
	return summary
}
