package util

import "time"

// Timer measures how long an export or request step took.
type Timer struct {
	start time.Time
}

// StartTimer starts a timer at the current time.
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// Elapsed returns the time since start, or zero for an unstarted timer.
func (t Timer) Elapsed() time.Duration {
	if t.start.IsZero() {
		return 0
	}
	return time.Since(t.start)
}

// ElapsedMs returns Elapsed in whole milliseconds, for log fields.
func (t Timer) ElapsedMs() int64 {
	return t.Elapsed().Milliseconds()
}
