package types

// Service configuration supplied on the retained config/<service> topics.

// LoggerConfig carries the logger core's timing and sizing parameters.
// Zero fields take the compiled-in defaults (see each service).
type LoggerConfig struct {
	RecordWidth    int `json:"record_width"`     // bytes per record incl. newline
	LogIntervalS   int `json:"log_interval_s"`   // sampling cadence bound
	FlushIntervalS int `json:"flush_interval_s"` // timed flush bound
	DebounceMs     int `json:"debounce_ms"`      // button stability window
	LongPressMs    int `json:"long_press_ms"`    // press classification threshold
	CooldownMs     int `json:"cooldown_ms"`      // toggle flap suppression
	PresencePollMs int `json:"presence_poll_ms"` // medium probe rate bound
	MinSats        int `json:"min_sats"`         // fix gate for record building
	StatusMs       int `json:"status_ms"`        // transient status display time
}

// GPSConfig carries the receiver-link parameters. The UART baud rate is not
// here: the wire is configured once at port creation, before the bus runs.
type GPSConfig struct {
	LinkTimeoutMs int `json:"link_timeout_ms"` // "connected" window
	FixMaxAgeMs   int `json:"fix_max_age_ms"`  // freshness gate
}
