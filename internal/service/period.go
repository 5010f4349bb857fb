// Package service implements the compliance and incentive engines:
// rolling period calculation, cap enforcement, milestone bonuses,
// reference id generation, and the flag review workflow.
package service

import (
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("service")

// CurrentPeriod returns the rolling monthly window containing now for a
// customer anchored at anchorDay. The period starts at 00:00:00 on the
// anchor day and ends at 23:59:59 on the day before the next anchor.
// Anchor days past a month's length clamp to that month's last day, so
// consecutive periods tile with no gaps for any anchor 1-31.
func CurrentPeriod(anchorDay int, now time.Time) (start, end time.Time) {
	if anchorDay < 1 {
		anchorDay = 1
	}
	if anchorDay > 31 {
		anchorDay = 31
	}

	loc := now.Location()
	start = anchorDate(now.Year(), now.Month(), anchorDay, loc)
	if now.Before(start) {
		start = anchorDate(now.Year(), now.Month()-1, anchorDay, loc)
	}
	next := anchorDate(start.Year(), start.Month()+1, anchorDay, loc)
	end = next.Add(-time.Second)
	return start, end
}

// anchorDate returns midnight on the anchor day of the given month,
// clamped to the month's last day. Out-of-range months normalize the
// usual Go way (month 0 is December of the previous year).
func anchorDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	norm := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	year, month = norm.Year(), norm.Month()
	if last := daysInMonth(year, month, loc); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func daysInMonth(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
