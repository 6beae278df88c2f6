package simulation

import (
	"iter"
	"time"
)

// TimeRange yields start, start+step, ... up to and including start+duration.
func TimeRange(start time.Time, duration, step time.Duration) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if step <= 0 {
			return
		}
		end := start.Add(duration)
		for ts := start; !ts.After(end); ts = ts.Add(step) {
			if !yield(ts) {
				return
			}
		}
	}
}

// Steps returns the number of timestamps TimeRange yields.
func Steps(duration, step time.Duration) int {
	if step <= 0 || duration < 0 {
		return 0
	}
	return int(duration/step) + 1
}

// DayIndex is the number of calendar days between the UTC dates of start
// and ts, regardless of the time of day.
func DayIndex(start, ts time.Time) int {
	s := start.UTC()
	t := ts.UTC()
	sd := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	td := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int((td.Unix() - sd.Unix()) / 86400)
}
