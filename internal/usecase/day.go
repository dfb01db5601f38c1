package usecase

import "time"

// startOfDay is the single day-boundary definition shared by the campaign
// allocator and the mailbox pool. Quota math anywhere else must go through
// this so "today" always means the same thing.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
