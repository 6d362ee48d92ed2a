package retention

import "time"

// AddMonths adds n calendar months to t. When the target month is shorter
// than t's day of month, the day is clamped to the last day of that month
// (Jan 31 + 1 month = Feb 28, or Feb 29 in a leap year). Negative n subtracts
// months with the same clamping. Time of day and location are preserved.
func AddMonths(t time.Time, n int) time.Time {
	if n == 0 {
		return t
	}

	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	total := int(month) - 1 + n
	targetYear := year + floorDiv(total, 12)
	targetMonth := time.Month(floorMod(total, 12) + 1)

	if last := daysIn(targetYear, targetMonth, t.Location()); day > last {
		day = last
	}

	return time.Date(targetYear, targetMonth, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month, loc *time.Location) int {
	// Day 0 of the following month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
