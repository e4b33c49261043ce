package slew

import "tracklog-go/x/mathx"

// Limiter moves a value toward a target with a bounded per-update step,
// suppressing jitter in displayed readings.
type Limiter struct {
	step  int32 // max change per Update; <=0 snaps
	value int32
}

func NewLimiter(step int32) *Limiter {
	return &Limiter{step: step}
}

func (l *Limiter) Value() int32 { return l.value }

// Snap sets the value immediately, bypassing the limit.
func (l *Limiter) Snap(v int32) { l.value = v }

// SetStep changes the per-update bound.
func (l *Limiter) SetStep(step int32) { l.step = step }

// Update moves the value one bounded step toward target and returns it.
func (l *Limiter) Update(target int32) int32 {
	if l.step <= 0 {
		l.value = target
		return l.value
	}
	l.value += mathx.Clamp(target-l.value, -l.step, l.step)
	return l.value
}
