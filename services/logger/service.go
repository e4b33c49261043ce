// Package logger is the recording core: it debounces the operator button,
// supervises the removable medium, samples position and pulse rate into
// fixed-width records, and flushes them with bounded retry. One control
// cycle runs per tick; every step is rate-limited internally so the cycle
// itself stays cheap.
package logger

import (
	"context"
	"time"

	"tracklog-go/bus"
	"tracklog-go/errcode"
	"tracklog-go/types"
	"tracklog-go/x/timex"
)

var (
	topicConfigLogger = bus.Topic{"config", "logger"}
	topicConfigRPM    = bus.Topic{"config", "rpm"}
	topicGPSSample    = bus.Topic{"gps", "sample"}
	topicLoggerState  = bus.Topic{"logger", "state"}
)

const (
	tickEvery      = 10 * time.Millisecond
	statePublishMs = 250
	fixMaxAgeMs    = 3000
)

// bufferCapacity sizes the record buffer so a full buffer corresponds to one
// flush interval of samples.
func bufferCapacity(cfg types.LoggerConfig) int {
	if cfg.LogIntervalS <= 0 {
		return 1
	}
	n := cfg.FlushIntervalS / cfg.LogIntervalS
	if n < 1 {
		n = 1
	}
	return n
}

type Service struct {
	med      types.Medium
	button   *Button
	rpm      *RPM
	presence *Presence

	cfg types.LoggerConfig

	sample types.GPSSample
	sess   *session
	buf    *recordBuffer
	rec    []byte // scratch for one record

	lastToggleMs  int64
	haveToggled   bool
	lastFlushMs   int64
	lastLoggedSec int
	haveLoggedSec bool
	dropsReported int

	status        string
	statusUntilMs int64

	lastStateMs int64
	lastState   types.LoggerState
	haveState   bool
}

func defaultLoggerConfig() types.LoggerConfig {
	return types.LoggerConfig{
		RecordWidth:    64,
		LogIntervalS:   1,
		FlushIntervalS: 10,
		DebounceMs:     50,
		LongPressMs:    1000,
		CooldownMs:     5000,
		PresencePollMs: 2000,
		MinSats:        4,
		StatusMs:       3000,
	}
}

// NewService wires the logger to its medium, button pin and pulse pin. The
// pulse IRQ handler runs in interrupt context and only touches the
// estimator's atomics.
func NewService(med types.Medium, buttonPin types.GPIOPin, pulsePin types.IRQPin) *Service {
	cfg := defaultLoggerConfig()
	s := &Service{
		med:      med,
		cfg:      cfg,
		button:   NewButton(buttonPin, int64(cfg.DebounceMs), int64(cfg.LongPressMs)),
		rpm:      NewRPM(2, 10, 33, 2000, 50),
		presence: NewPresence(med, int64(cfg.PresencePollMs)),
		buf:      newRecordBuffer(cfg.RecordWidth, bufferCapacity(cfg)),
		rec:      make([]byte, cfg.RecordWidth),
	}
	if pulsePin != nil {
		pulsePin.SetIRQ(types.EdgeRising, func() { s.rpm.Pulse(timex.NowMs()) })
	}
	return s
}

// Start launches the control loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigLogger)
	defer conn.Unsubscribe(cfgSub)
	rpmCfgSub := conn.Subscribe(topicConfigRPM)
	defer conn.Unsubscribe(rpmCfgSub)
	sampleSub := conn.Subscribe(topicGPSSample)
	defer conn.Unsubscribe(sampleSub)

	tick := time.NewTicker(tickEvery)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.sess != nil {
				s.sess.close(s.buf)
				s.sess = nil
			}
			println("Info: logger service stopping")
			return
		case <-tick.C:
			s.cycle(timex.NowMs(), conn)
		case msg := <-cfgSub.Channel():
			s.applyLoggerConfig(msg.Payload)
		case msg := <-rpmCfgSub.Channel():
			s.applyRPMConfig(msg.Payload)
		case msg := <-sampleSub.Channel():
			if smp, ok := msg.Payload.(types.GPSSample); ok {
				s.sample = smp
			}
		}
	}
}

// cycle runs one pass of the control loop: button, presence, toggling,
// sampling, flushing, then state publication.
func (s *Service) cycle(nowMs int64, conn *bus.Connection) {
	s.button.Poll(nowMs)
	s.checkPresence(nowMs)
	s.handleButton(nowMs)
	s.sampleRecord(nowMs)
	s.flushDue(nowMs)
	s.publishState(nowMs, conn)
}

func (s *Service) checkPresence(nowMs int64) {
	present, changed := s.presence.Check(nowMs)
	if changed {
		if present {
			s.setStatus("CARD IN", nowMs)
		} else {
			s.setStatus("CARD OUT", nowMs)
		}
	}
	// A pulled card force-stops the session: best-effort flush, close,
	// empty buffer. The toggle cooldown is cleared so reinsert-and-click
	// works immediately.
	if !present && s.sess != nil {
		println("Info: logger:", string(errcode.CardRemoved), s.sess.name)
		s.sess.close(s.buf)
		s.buf.Reset()
		s.sess = nil
		s.haveToggled = false
		s.setStatus("CARD OUT", nowMs)
	}
}

func (s *Service) handleButton(nowMs int64) {
	if s.button.TakeLongPress() {
		// Long press only surfaces current state, it never toggles.
		if s.sess != nil {
			s.setStatus("REC "+s.sess.name, nowMs)
		} else {
			s.setStatus("READY", nowMs)
		}
	}
	if !s.button.TakeShortClick() {
		return
	}
	if s.haveToggled && nowMs-s.lastToggleMs < int64(s.cfg.CooldownMs) {
		return
	}
	if s.sess == nil {
		s.startLogging(nowMs)
	} else {
		s.stopLogging(nowMs)
	}
}

func (s *Service) startLogging(nowMs int64) {
	if !s.presence.Present() {
		s.setStatus("NO CARD", nowMs)
		return
	}
	sess, err := startSession(s.med, s.sample)
	if err != nil {
		println("Error: logger:", err.Error())
		s.setStatus("OPEN ERR", nowMs)
		return
	}
	s.sess = sess
	s.buf.Reset()
	s.haveLoggedSec = false
	s.rpm.TakeAverage() // discard stale accumulation
	s.lastFlushMs = nowMs
	s.lastToggleMs = nowMs
	s.haveToggled = true
	s.setStatus("REC "+sess.name, nowMs)
	println("Info: logger: recording to", sess.name)
}

func (s *Service) stopLogging(nowMs int64) {
	name := s.sess.name
	err := s.sess.close(s.buf)
	s.sess = nil
	s.lastToggleMs = nowMs
	s.haveToggled = true
	if err != nil {
		println("Error: logger:", err.Error())
		s.buf.Reset()
		s.setStatus("WRITE ERR", nowMs)
		return
	}
	s.setStatus("SAVED "+name, nowMs)
}

// sampleRecord advances the pulse estimator and, at most once per distinct
// receiver second, appends one record when the fix gate passes.
func (s *Service) sampleRecord(nowMs int64) {
	s.rpm.Sample(nowMs)
	if s.sess == nil {
		return
	}
	smp := s.sample
	if !smp.TimeValid || !smp.Fresh(fixMaxAgeMs) {
		return
	}
	if !smp.SatsValid || smp.Sats < s.cfg.MinSats {
		return
	}
	sec := smp.Hour*3600 + smp.Minute*60 + smp.Second
	if s.haveLoggedSec {
		diff := sec - s.lastLoggedSec
		if diff < 0 {
			diff += 86400 // midnight wrap
		}
		if diff < s.cfg.LogIntervalS {
			return
		}
	}
	s.lastLoggedSec = sec
	s.haveLoggedSec = true

	rec := formatRecord(s.rec, smp, roundSpeed(smp), s.rpm.TakeAverage(), s.cfg.RecordWidth)

	// A full buffer flushes before the new record is accepted. Only a
	// failed flush can cost a record, and that is always reported.
	dropped := false
	if s.buf.Full() && !s.flushNow(nowMs) {
		dropped = true
	}
	if !dropped && !s.buf.Append(rec) {
		s.buf.TakeDropped()
		dropped = true
	}
	if dropped {
		s.dropsReported++
		println("Warn: logger:", string(errcode.RecordDropped), "total", s.dropsReported)
		s.setStatus("DROP", nowMs)
	}
}

func (s *Service) flushDue(nowMs int64) {
	if s.sess == nil || s.buf.Records() == 0 {
		return
	}
	if nowMs-s.lastFlushMs < int64(s.cfg.FlushIntervalS)*1000 {
		return
	}
	s.flushNow(nowMs)
}

// flushNow writes the buffer out immediately. A terminal flush failure (the
// retry inside already failed) stops the session without stamping the
// cooldown; remaining buffered data is gone with it.
func (s *Service) flushNow(nowMs int64) bool {
	s.lastFlushMs = nowMs
	if err := s.sess.flush(s.buf); err != nil {
		println("Error: logger:", err.Error())
		s.sess.file.Close()
		s.sess = nil
		s.haveToggled = false
		s.buf.Reset()
		s.setStatus("WRITE ERR", nowMs)
		return false
	}
	s.setStatus("WRITING", nowMs)
	return true
}

func (s *Service) setStatus(text string, nowMs int64) {
	s.status = text
	s.statusUntilMs = nowMs + int64(s.cfg.StatusMs)
}

// publishState posts the retained logger/state snapshot when it changes,
// and at a low heartbeat rate otherwise.
func (s *Service) publishState(nowMs int64, conn *bus.Connection) {
	if conn == nil {
		return
	}
	status := s.status
	if s.statusUntilMs != 0 && nowMs >= s.statusUntilMs {
		status = ""
	}
	st := types.LoggerState{
		Active: s.sess != nil,
		CardIn: s.presence.Present(),
		RPM:    s.rpm.Value(),
		Status: status,
	}
	if s.sess != nil {
		st.File = s.sess.name
	}
	if status != "" {
		st.StatusUntil = s.statusUntilMs
	}

	changedIgnoringTS := !s.haveState ||
		st.Active != s.lastState.Active ||
		st.CardIn != s.lastState.CardIn ||
		st.File != s.lastState.File ||
		st.RPM != s.lastState.RPM ||
		st.Status != s.lastState.Status
	if !changedIgnoringTS && nowMs-s.lastStateMs < statePublishMs {
		return
	}
	st.TS = nowMs
	s.lastState = st
	s.haveState = true
	s.lastStateMs = nowMs
	conn.Publish(&bus.Message{Topic: topicLoggerState, Payload: st, Retained: true})
}

func (s *Service) applyLoggerConfig(payload any) {
	m, ok := payload.(map[string]any)
	if !ok {
		return
	}
	get := func(key string) (int, bool) {
		if f, ok := m[key].(float64); ok && f > 0 {
			return int(f), true
		}
		return 0, false
	}
	if v, ok := get("record_width"); ok {
		s.cfg.RecordWidth = v
	}
	if v, ok := get("log_interval_s"); ok {
		s.cfg.LogIntervalS = v
	}
	if v, ok := get("flush_interval_s"); ok {
		s.cfg.FlushIntervalS = v
	}
	if v, ok := get("debounce_ms"); ok {
		s.cfg.DebounceMs = v
	}
	if v, ok := get("long_press_ms"); ok {
		s.cfg.LongPressMs = v
	}
	s.button.SetTiming(int64(s.cfg.DebounceMs), int64(s.cfg.LongPressMs))
	if v, ok := get("cooldown_ms"); ok {
		s.cfg.CooldownMs = v
	}
	if v, ok := get("presence_poll_ms"); ok {
		s.cfg.PresencePollMs = v
		s.presence.SetPollMs(int64(v))
	}
	if v, ok := get("min_sats"); ok {
		s.cfg.MinSats = v
	}
	if v, ok := get("status_ms"); ok {
		s.cfg.StatusMs = v
	}
	// Resize the buffer when its dimensions changed; pending records are
	// discarded, so config pushes mid-session lose at most one buffer.
	if s.cfg.RecordWidth != s.buf.width || bufferCapacity(s.cfg) != s.buf.max {
		s.buf = newRecordBuffer(s.cfg.RecordWidth, bufferCapacity(s.cfg))
		s.rec = make([]byte, s.cfg.RecordWidth)
	}
}

func (s *Service) applyRPMConfig(payload any) {
	m, ok := payload.(map[string]any)
	if !ok {
		return
	}
	get := func(key string) int64 {
		if f, ok := m[key].(float64); ok {
			return int64(f)
		}
		return 0
	}
	s.rpm.Configure(
		get("pulses_per_rev"),
		get("min_gap_ms"),
		get("sample_ms"),
		get("timeout_ms"),
		int32(get("max_step")),
	)
}
