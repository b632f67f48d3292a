package punch

import (
	"time"

	"gopunch/internal/timeutil"
)

// Record is one normalized fingerprint scan read from a punch-clock log.
type Record struct {
	EmployeeID   int64
	EmployeeName string
	Timestamp    time.Time
	Line         int
}

// Date returns the calendar day of the scan at midnight in the timestamp's location.
func (r Record) Date() time.Time {
	return timeutil.StartOfDay(r.Timestamp)
}
