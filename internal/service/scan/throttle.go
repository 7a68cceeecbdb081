package scan

import "time"

// throttle admits at most one request per interval; a request inside the
// window is dropped, not delayed
type throttle struct {
	interval time.Duration
	last     time.Time
}

func newThrottle(interval time.Duration) *throttle {
	return &throttle{interval: interval}
}

func (t *throttle) allow(now time.Time) bool {
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// wait returns how long until allow would admit a request
func (t *throttle) wait(now time.Time) time.Duration {
	if t.last.IsZero() {
		return 0
	}
	if d := t.interval - now.Sub(t.last); d > 0 {
		return d
	}
	return 0
}
