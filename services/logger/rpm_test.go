package logger

import "testing"

// 2 pulses per rev, 10ms min gap, 33ms sample cadence, 2s timeout,
// snap display (no slew) unless a test sets a step.
func newTestRPM(maxStep int32) *RPM {
	return NewRPM(2, 10, 33, 2000, maxStep)
}

func TestRPM_SteadyPulses(t *testing.T) {
	r := newTestRPM(0)

	// 20ms between pulses at 2 pulses/rev: 60000/(20*2) = 1500 rpm.
	for now := int64(0); now <= 200; now += 20 {
		r.Pulse(now)
	}
	got := r.Sample(233)
	if got != 1500 {
		t.Fatalf("rpm = %d, want 1500", got)
	}
}

func TestRPM_FirstEdgeAtClockZero(t *testing.T) {
	r := newTestRPM(0)

	// The millisecond clock starts at boot, so t=0 is a legitimate edge
	// time and must count toward the first interval.
	r.Pulse(0)
	r.Pulse(40) // 60000/(40*2) = 750 rpm
	if got := r.Sample(50); got != 750 {
		t.Fatalf("rpm = %d, want 750 (edge at t=0 must count)", got)
	}
}

func TestRPM_MinGapRejectsBounce(t *testing.T) {
	r := newTestRPM(0)

	r.Pulse(100)
	r.Pulse(103) // bounce, under the 10ms gap
	r.Pulse(120) // real edge, 20ms after the accepted one

	if got := r.Sample(150); got != 1500 {
		t.Fatalf("rpm = %d, want 1500 (bounce must not shorten the interval)", got)
	}
}

func TestRPM_TimeoutDecaysToZero(t *testing.T) {
	r := newTestRPM(0)

	r.Pulse(0)
	r.Pulse(20)
	if got := r.Sample(50); got != 1500 {
		t.Fatalf("rpm = %d, want 1500 before timeout", got)
	}
	if got := r.Sample(3000); got != 0 {
		t.Fatalf("rpm = %d, want 0 after 2s without edges", got)
	}
}

func TestRPM_SampleCadence(t *testing.T) {
	r := newTestRPM(0)

	r.Pulse(0)
	r.Pulse(20)
	first := r.Sample(40)
	// A call inside the 33ms cadence must not advance the estimator.
	r.Pulse(60) // 40ms gap would mean 750 rpm
	if got := r.Sample(50); got != first {
		t.Fatalf("rpm = %d, want unchanged %d within cadence window", got, first)
	}
}

func TestRPM_SlewLimitsDisplayStep(t *testing.T) {
	r := newTestRPM(100)

	r.Pulse(0)
	r.Pulse(20) // instantaneous 1500 rpm
	if got := r.Sample(40); got != 100 {
		t.Fatalf("rpm = %d, want 100 (one slew step from 0)", got)
	}
	if got := r.Sample(80); got != 200 {
		t.Fatalf("rpm = %d, want 200 (second slew step)", got)
	}
}

func TestRPM_TakeAverage(t *testing.T) {
	r := newTestRPM(0)

	r.Pulse(0)
	r.Pulse(20)
	r.Sample(40)  // 1500
	r.Sample(80)  // 1500
	r.Sample(120) // 1500

	if got := r.TakeAverage(); got != 1500 {
		t.Fatalf("average = %d, want 1500", got)
	}
	if got := r.TakeAverage(); got != 0 {
		t.Fatalf("average after reset = %d, want 0", got)
	}
}
