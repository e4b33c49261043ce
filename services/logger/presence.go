package logger

import "tracklog-go/types"

// Presence rate-limits medium probes and reports insertion and removal
// transitions. Probe can stall for a hardware init attempt, so the control
// loop must not call it every tick.
type Presence struct {
	med    types.Medium
	pollMs int64

	lastPollMs int64
	present    bool
	known      bool
}

func NewPresence(med types.Medium, pollMs int64) *Presence {
	return &Presence{med: med, pollMs: pollMs}
}

// Check probes the medium if the poll interval has elapsed. It returns the
// current presence and whether this call observed a transition. The first
// probe establishes the baseline and never counts as a transition.
func (p *Presence) Check(nowMs int64) (present, changed bool) {
	if p.known && nowMs-p.lastPollMs < p.pollMs {
		return p.present, false
	}
	p.lastPollMs = nowMs
	cur := p.med.Probe()
	changed = p.known && cur != p.present
	p.present = cur
	p.known = true
	return p.present, changed
}

// Present returns the last probed state without probing.
func (p *Presence) Present() bool { return p.present }

func (p *Presence) SetPollMs(pollMs int64) {
	if pollMs > 0 {
		p.pollMs = pollMs
	}
}
