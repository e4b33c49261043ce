package logger

import (
	"testing"
	"time"

	"tracklog-go/bus"
	"tracklog-go/platform"
	"tracklog-go/types"
)

// rig drives the control loop with a simulated clock, one cycle per 10ms.
type rig struct {
	t     *testing.T
	s     *Service
	btn   *platform.FakePin
	pulse *platform.FakePin
	med   *platform.MemMedium
	now   int64
}

func newRig(t *testing.T) *rig {
	t.Helper()
	med := platform.NewMemMedium(true)
	btn := platform.NewFakePin(5, true)   // idle high
	pulse := platform.NewFakePin(2, false)
	s := NewService(med, btn, pulse)
	s.sample = types.GPSSample{
		LocValid: true, Lat: 51.477928, Lon: -0.001462,
		SpeedValid: true, SpeedMPH: 10,
		DateValid: true, Year: 2025, Month: 1, Day: 1,
		TimeValid: true, Hour: 12, Minute: 0, Second: 0,
		SatsValid: true, Sats: 7,
		AgeMs: 100,
	}
	return &rig{t: t, s: s, btn: btn, pulse: pulse, med: med}
}

func (r *rig) run(ms int64) {
	for i := int64(0); i < ms/10; i++ {
		r.s.cycle(r.now, nil)
		r.now += 10
	}
}

// click presses and releases the button, running enough cycles to clear the
// debounce window on both edges.
func (r *rig) click() {
	r.btn.Set(false)
	r.run(60)
	r.btn.Set(true)
	r.run(60)
}

func (r *rig) setSecond(sec int) {
	r.s.sample.Minute = sec / 60
	r.s.sample.Second = sec % 60
}

func (r *rig) fileLen(name string) int {
	b, ok := r.med.FileBytes(name)
	if !ok {
		r.t.Fatalf("file %q missing", name)
	}
	return len(b)
}

func TestService_StartLogFlushStop(t *testing.T) {
	r := newRig(t)

	r.click() // start
	if r.s.sess == nil {
		t.Fatal("session not started by click")
	}
	name := r.s.sess.name
	if name != "L25010100.CSV" {
		t.Fatalf("file name = %q", name)
	}
	if got := r.fileLen(name); got != len(headerLine) {
		t.Fatalf("file length after start = %d, want header only", got)
	}

	// Eleven further distinct receiver seconds; the buffer reaches its
	// one-flush-interval capacity along the way and flushes, the stop
	// click drains the rest.
	for sec := 1; sec <= 11; sec++ {
		r.setSecond(sec)
		r.run(1000)
	}
	if got := r.fileLen(name); got <= len(headerLine) {
		t.Fatal("timed flush wrote nothing")
	}

	r.click() // stop
	if r.s.sess != nil {
		t.Fatal("session still active after stop click")
	}
	want := len(headerLine) + 12*r.s.cfg.RecordWidth // seconds 0..11
	if got := r.fileLen(name); got != want {
		t.Fatalf("final file length = %d, want %d", got, want)
	}
}

func TestService_DistinctSecondGate(t *testing.T) {
	r := newRig(t)
	r.click()
	name := r.s.sess.name

	// Receiver second never advances: only one record regardless of ticks.
	r.run(5000)
	r.click() // stop, flushing the buffer
	want := len(headerLine) + 1*r.s.cfg.RecordWidth
	if got := r.fileLen(name); got != want {
		t.Fatalf("file length = %d, want %d (one record)", got, want)
	}
}

func TestService_CooldownBlocksRapidToggle(t *testing.T) {
	r := newRig(t)

	r.click() // start
	if r.s.sess == nil {
		t.Fatal("no session")
	}
	r.click() // inside the 5s cooldown
	if r.s.sess == nil {
		t.Fatal("click inside cooldown must be ignored")
	}

	r.run(5000)
	r.click()
	if r.s.sess != nil {
		t.Fatal("click after cooldown must stop the session")
	}
}

func TestService_MinSatsGatesRecords(t *testing.T) {
	r := newRig(t)
	r.s.sample.Sats = 3 // under the default minimum of 4

	r.click()
	name := r.s.sess.name
	for sec := 1; sec <= 3; sec++ {
		r.setSecond(sec)
		r.run(1000)
	}
	r.run(5000)
	r.click() // stop
	if got := r.fileLen(name); got != len(headerLine) {
		t.Fatalf("file length = %d, want header only with too few sats", got)
	}
}

func TestService_StaleFixGatesRecords(t *testing.T) {
	r := newRig(t)
	r.s.sample.AgeMs = 5000

	r.click()
	name := r.s.sess.name
	r.setSecond(1)
	r.run(1000)
	r.run(5000)
	r.click()
	if got := r.fileLen(name); got != len(headerLine) {
		t.Fatalf("file length = %d, want header only with stale fix", got)
	}
}

func TestService_CardRemovalForcesStopWithoutCooldown(t *testing.T) {
	r := newRig(t)

	r.click()
	if r.s.sess == nil {
		t.Fatal("no session")
	}

	r.med.Remove()
	r.run(2100) // past the presence poll interval
	if r.s.sess != nil {
		t.Fatal("session must force-stop on removal")
	}
	if r.s.status != "CARD OUT" {
		t.Fatalf("status = %q, want CARD OUT", r.s.status)
	}

	// Reinsert and click immediately: forced stop does not stamp the
	// cooldown, so this starts a fresh session.
	r.med.Insert()
	r.run(2100)
	r.click()
	if r.s.sess == nil {
		t.Fatal("click after reinsertion must start a session")
	}
	if r.s.sess.name != "L25010101.CSV" {
		t.Fatalf("second file = %q, want next slot", r.s.sess.name)
	}
}

func TestService_NoCardClickShowsStatus(t *testing.T) {
	r := newRig(t)
	r.med.Remove()
	r.run(10) // establish presence baseline

	r.click()
	if r.s.sess != nil {
		t.Fatal("session started without a card")
	}
	if r.s.status != "NO CARD" {
		t.Fatalf("status = %q, want NO CARD", r.s.status)
	}
}

func TestService_FlushFailureStopsSession(t *testing.T) {
	r := newRig(t)

	r.click()
	r.setSecond(1)
	r.run(1000)

	r.med.FailNextWrites(2) // flush attempt and its retry
	r.run(10_000)           // cross the flush interval
	if r.s.sess != nil {
		t.Fatal("session must stop after terminal flush failure")
	}
	if r.s.status != "WRITE ERR" {
		t.Fatalf("status = %q, want WRITE ERR", r.s.status)
	}
}

func TestService_FullBufferFlushesBeforeAppend(t *testing.T) {
	r := newRig(t)
	r.s.cfg.FlushIntervalS = 1000 // keep the timed flush out of the way

	r.click() // logs second 0
	name := r.s.sess.name
	capacity := r.s.buf.max // 10 with default intervals
	for sec := 1; sec <= capacity+1; sec++ {
		r.setSecond(sec)
		r.run(1000)
	}

	if r.s.dropsReported != 0 {
		t.Fatalf("drops = %d, want 0 (capacity flush must make room)", r.s.dropsReported)
	}
	want := len(headerLine) + capacity*r.s.cfg.RecordWidth
	if got := r.fileLen(name); got != want {
		t.Fatalf("file length = %d, want %d (one full buffer flushed)", got, want)
	}
	if got := r.s.buf.Records(); got != 2 {
		t.Fatalf("buffered records = %d, want 2 after capacity flush", got)
	}
}

func TestService_DropOnlyWhenCapacityFlushFails(t *testing.T) {
	r := newRig(t)
	r.s.cfg.FlushIntervalS = 1000

	r.click() // logs second 0
	capacity := r.s.buf.max
	for sec := 1; sec < capacity; sec++ { // fill to exactly capacity
		r.setSecond(sec)
		r.run(1000)
	}
	if !r.s.buf.Full() {
		t.Fatalf("buffer not full: %d/%d", r.s.buf.Records(), capacity)
	}

	r.med.FailNextWrites(100)
	r.setSecond(capacity)
	r.run(1000)

	if r.s.dropsReported != 1 {
		t.Fatalf("drops = %d, want 1", r.s.dropsReported)
	}
	if r.s.sess != nil {
		t.Fatal("session must stop after terminal capacity flush failure")
	}
	if r.s.status != "DROP" {
		t.Fatalf("status = %q, want DROP", r.s.status)
	}
}

func TestService_LongPressShowsStateOnly(t *testing.T) {
	r := newRig(t)

	r.btn.Set(false)
	r.run(1200) // held past the 1s threshold
	r.btn.Set(true)
	r.run(100)

	if r.s.sess != nil {
		t.Fatal("long press must not toggle logging")
	}
	if r.s.status != "READY" {
		t.Fatalf("status = %q, want READY", r.s.status)
	}
}

func TestService_PublishesRetainedState(t *testing.T) {
	r := newRig(t)
	b := bus.NewBus(16)
	conn := b.NewConnection("logger")

	for i := 0; i < 10; i++ {
		r.s.cycle(r.now, conn)
		r.now += 10
	}

	watch := b.NewConnection("watch")
	sub := watch.Subscribe(bus.Topic{"logger", "state"})
	select {
	case m := <-sub.Channel():
		st, ok := m.Payload.(types.LoggerState)
		if !ok {
			t.Fatalf("payload type %T", m.Payload)
		}
		if st.Active || !st.CardIn {
			t.Fatalf("state = %+v, want idle with card in", st)
		}
	case <-time.After(time.Second):
		t.Fatal("no retained logger/state")
	}
}

func TestService_RPMSlewLimitedByDefault(t *testing.T) {
	r := newRig(t)

	// Smoothing must hold without any config/rpm message: a sudden 1500 rpm
	// target moves the display by one bounded step per sample.
	r.s.rpm.Pulse(0)
	r.s.rpm.Pulse(20)
	if got := r.s.rpm.Sample(40); got != 50 {
		t.Fatalf("rpm = %d, want 50 (one default slew step from 0)", got)
	}
	if got := r.s.rpm.Sample(80); got != 100 {
		t.Fatalf("rpm = %d, want 100 (second default slew step)", got)
	}
}

func TestService_PulseIRQFeedsEstimator(t *testing.T) {
	r := newRig(t)

	// Edges come in on the pin's rising IRQ path, wall-clock spaced.
	for i := 0; i < 6; i++ {
		r.pulse.Set(true)
		r.pulse.Set(false)
		time.Sleep(20 * time.Millisecond)
	}
	now := time.Now().UnixMilli()
	if got := r.s.rpm.Sample(now); got <= 0 {
		t.Fatalf("rpm = %d, want positive after pulse edges", got)
	}
}
