package logger

import (
	"sync/atomic"

	"tracklog-go/x/slew"
)

// RPM estimates rotational speed from pulse edge timing. Pulse runs in
// interrupt context and touches only atomics; Sample runs in the control
// loop and produces a slew-limited display value plus an accumulator for
// the per-record average.
type RPM struct {
	pulsesPerRev int64
	minGapMs     int64
	sampleMs     int64
	timeoutMs    int64

	edgeSeen   atomic.Bool  // at least one accepted edge
	lastEdgeMs atomic.Int64 // valid once edgeSeen
	intervalMs atomic.Int64 // 0 until two accepted edges

	lim          *slew.Limiter
	lastSampleMs int64

	sum   int64
	count int64
}

func NewRPM(pulsesPerRev, minGapMs, sampleMs, timeoutMs int64, maxStep int32) *RPM {
	if pulsesPerRev <= 0 {
		pulsesPerRev = 1
	}
	return &RPM{
		pulsesPerRev: pulsesPerRev,
		minGapMs:     minGapMs,
		sampleMs:     sampleMs,
		timeoutMs:    timeoutMs,
		lim:          slew.NewLimiter(maxStep),
	}
}

// Pulse records one edge. Safe to call from an interrupt handler; edges
// closer together than the minimum gap are treated as contact noise.
func (r *RPM) Pulse(nowMs int64) {
	if r.edgeSeen.Load() {
		gap := nowMs - r.lastEdgeMs.Load()
		if gap < r.minGapMs {
			return
		}
		r.intervalMs.Store(gap)
	}
	r.lastEdgeMs.Store(nowMs)
	r.edgeSeen.Store(true)
}

// Sample advances the estimator at its own cadence and returns the current
// display value. Calls between cadence points are cheap no-ops.
func (r *RPM) Sample(nowMs int64) int {
	if nowMs-r.lastSampleMs < r.sampleMs {
		return int(r.lim.Value())
	}
	r.lastSampleMs = nowMs

	target := int32(0)
	if r.edgeSeen.Load() && nowMs-r.lastEdgeMs.Load() <= r.timeoutMs {
		if iv := r.intervalMs.Load(); iv > 0 {
			target = int32(60000 / (iv * r.pulsesPerRev))
		}
	}
	r.lim.Update(target)

	v := int64(r.lim.Value())
	r.sum += v
	r.count++
	return int(v)
}

// Value returns the current display value without advancing the sampler.
func (r *RPM) Value() int { return int(r.lim.Value()) }

// TakeAverage returns the mean display value since the previous call and
// resets the accumulator. Returns 0 when no samples accumulated.
func (r *RPM) TakeAverage() int {
	if r.count == 0 {
		return 0
	}
	avg := r.sum / r.count
	r.sum, r.count = 0, 0
	return int(avg)
}

// Configure applies new parameters; zero or negative values keep the
// current setting.
func (r *RPM) Configure(pulsesPerRev, minGapMs, sampleMs, timeoutMs int64, maxStep int32) {
	if pulsesPerRev > 0 {
		r.pulsesPerRev = pulsesPerRev
	}
	if minGapMs > 0 {
		r.minGapMs = minGapMs
	}
	if sampleMs > 0 {
		r.sampleMs = sampleMs
	}
	if timeoutMs > 0 {
		r.timeoutMs = timeoutMs
	}
	if maxStep > 0 {
		r.lim.SetStep(maxStep)
	}
}
