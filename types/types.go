package types

// ---- Positioning collaborator snapshot ----

// GPSSample is an immutable snapshot of the positioning receiver's state.
// A field with a false validity flag must be treated as unknown downstream
// (logged as zero or the -1 sentinel).
type GPSSample struct {
	LocValid bool    `json:"loc_valid"`
	Lat      float64 `json:"lat"` // degrees
	Lon      float64 `json:"lon"` // degrees

	SpeedValid bool    `json:"speed_valid"`
	SpeedMPH   float64 `json:"speed_mph"`

	DateValid bool `json:"date_valid"`
	Year      int  `json:"year"`
	Month     int  `json:"month"`
	Day       int  `json:"day"`

	TimeValid bool `json:"time_valid"`
	Hour      int  `json:"hour"`
	Minute    int  `json:"minute"`
	Second    int  `json:"second"`

	SatsValid bool `json:"sats_valid"`
	Sats      int  `json:"sats"`

	AgeMs uint32 `json:"age_ms"` // age of the fix
}

// Fresh reports a usable fix: valid location younger than maxAgeMs.
func (s GPSSample) Fresh(maxAgeMs uint32) bool {
	return s.LocValid && s.AgeMs < maxAgeMs
}

// ---- Presentation state (retained on the bus) ----

// LoggerState is the logger core's outward-facing state, published retained
// on logger/state. The display renders it; nothing flows back.
type LoggerState struct {
	Active      bool   `json:"active"`
	CardIn      bool   `json:"card_in"`
	File        string `json:"file,omitempty"`
	RPM         int    `json:"rpm"`
	Status      string `json:"status,omitempty"`
	StatusUntil int64  `json:"status_until_ms,omitempty"` // expiry, Unix ms
	TS          int64  `json:"ts_ms"`
}

// GPSState is the receiver-link summary, published retained on gps/state.
type GPSState struct {
	Connected bool   `json:"connected"` // bytes seen recently
	Fix       bool   `json:"fix"`       // fresh location solution
	Sats      int    `json:"sats"`      // -1 when unknown
	Clock     string `json:"clock"`     // "HH:MM:SS" or "--:--:--"
	SpeedMPH  int    `json:"speed_mph"` // -1 when unknown
	TS        int64  `json:"ts_ms"`
}
