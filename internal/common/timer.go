package common

import (
	"fmt"
	"time"
)

// Timer measures elapsed wall time, optionally under a name.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer starts an unnamed timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// NewNamedTimer starts a timer with the given name.
func NewNamedTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop records and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Elapsed returns the time since start without stopping.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Duration returns the duration recorded by Stop.
func (t *Timer) Duration() time.Duration {
	return t.duration
}

func (t *Timer) Name() string {
	return t.name
}

func (t *Timer) String() string {
	d := t.duration.Round(time.Microsecond)
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, d)
	}
	return d.String()
}
