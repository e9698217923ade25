// Package clock paces the emulator loop.
package clock

import "time"

// DefaultInterval is roughly the speed most CHIP-8 programs were written for.
const DefaultInterval = time.Millisecond

// Regulator grants at most one cycle per interval. Tick is meant to be
// called early in every loop iteration:
//
//	for {
//		if !regulator.Tick() {
//			continue
//		}
//		...
//	}
type Regulator struct {
	interval time.Duration
	readyAt  time.Time
	now      func() time.Time
}

func NewRegulator(interval time.Duration) *Regulator {
	return newRegulator(interval, time.Now)
}

func newRegulator(interval time.Duration, now func() time.Time) *Regulator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Regulator{
		interval: interval,
		readyAt:  now(),
		now:      now,
	}
}

// Tick reports whether the next cycle may run. When it returns true the
// following cycle is scheduled one interval from now.
func (r *Regulator) Tick() bool {
	now := r.now()
	if now.Before(r.readyAt) {
		return false
	}
	r.readyAt = now.Add(r.interval)
	return true
}

// Remaining is the time left until Tick next returns true.
func (r *Regulator) Remaining() time.Duration {
	return max(r.readyAt.Sub(r.now()), 0)
}

func (r *Regulator) Interval() time.Duration {
	return r.interval
}
