package probe

import "sync/atomic"

// Latest is an atomically published latest-sample cell. A timer-driven
// acquirer stores each new sample whole; a consumer loads the current one
// exactly once per conversion. This replaces the firmware pattern of a shared
// mutable sample variable read field by field while an interrupt overwrites it.
type Latest struct {
	v atomic.Pointer[RawSample]
}

// Store publishes s as the newest sample.
func (l *Latest) Store(s RawSample) {
	l.v.Store(&s)
}

// Load returns the newest published sample. ok is false until the first Store.
func (l *Latest) Load() (RawSample, bool) {
	p := l.v.Load()
	if p == nil {
		return RawSample{}, false
	}
	return *p, true
}
