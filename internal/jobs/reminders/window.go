// internal/jobs/reminders/window.go
package reminders

import "time"

// Window returns the half-open interval [start, end) covering "tomorrow" in
// loc: start is midnight of the next calendar day, end is midnight of the day
// after. Calendar arithmetic, not +24h from now, so DST transitions keep the
// window aligned to local days.
func Window(now time.Time, loc *time.Location) (start, end time.Time) {
	local := now.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	end = start.AddDate(0, 0, 1)
	return start, end
}
