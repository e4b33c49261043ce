package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgPicoLogger = `{
  "logger": {
      "record_width": 64,
      "log_interval_s": 1,
      "flush_interval_s": 10,
      "debounce_ms": 50,
      "long_press_ms": 1000,
      "cooldown_ms": 5000,
      "presence_poll_ms": 2000,
      "min_sats": 4,
      "status_ms": 3000
  },
  "rpm": {
      "pulses_per_rev": 2,
      "min_gap_ms": 10,
      "sample_ms": 33,
      "timeout_ms": 2000,
      "max_step": 50
  },
  "gps": {
      "link_timeout_ms": 3000,
      "fix_max_age_ms": 3000
  },
  "pins": {
      "button": 5,
      "pulse": 2
  },
  "heartbeat": {
      "interval": 1
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico-logger": []byte(cfgPicoLogger),
	"sim":         []byte(cfgPicoLogger),
}
