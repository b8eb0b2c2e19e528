package logger

import "time"

// RoundMS rounds a duration to the nearest millisecond so duration
// attributes stay readable.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}
