package logger

import (
	"tracklog-go/types"
	"tracklog-go/x/conv"
)

const headerLine = "lat,lon,speed_mph,UTC_datetime,RPM\n"

// formatRecord renders one fixed-width CSV line into dst and returns the
// filled slice, always exactly width bytes ending in '\n'. Fields are
// lat, lon (6 decimal places), speed in mph (whole, -1 unknown), UTC
// datetime, and average rpm. Content is space-padded, or truncated if a
// pathological value overruns the width.
func formatRecord(dst []byte, s types.GPSSample, speedMPH, rpm, width int) []byte {
	if width < 2 {
		width = 2
	}
	w := dst[:0]
	var tmp [24]byte

	w = append(w, conv.Ftoa(tmp[:], s.Lat, 6)...)
	w = append(w, ',')
	w = append(w, conv.Ftoa(tmp[:], s.Lon, 6)...)
	w = append(w, ',')
	w = append(w, conv.Itoa(tmp[:], int64(speedMPH))...)
	w = append(w, ',')
	w = appendDateTime(w, s)
	w = append(w, ',')
	w = append(w, conv.Itoa(tmp[:], int64(rpm))...)

	if len(w) > width-1 {
		w = w[:width-1]
	}
	for len(w) < width-1 {
		w = append(w, ' ')
	}
	return append(w, '\n')
}

// appendDateTime writes "YYYY-MM-DD HH:MM:SS"; unknown halves render as
// zeros so the line width never varies.
func appendDateTime(w []byte, s types.GPSSample) []byte {
	var tmp [4]byte
	var y, mo, d, h, mi, sec int
	if s.DateValid {
		y, mo, d = s.Year, s.Month, s.Day
	}
	if s.TimeValid {
		h, mi, sec = s.Hour, s.Minute, s.Second
	}
	w = append(w, conv.UtoaPad(tmp[:], uint64(y), 4)...)
	w = append(w, '-')
	w = append(w, conv.UtoaPad(tmp[:], uint64(mo), 2)...)
	w = append(w, '-')
	w = append(w, conv.UtoaPad(tmp[:], uint64(d), 2)...)
	w = append(w, ' ')
	w = append(w, conv.UtoaPad(tmp[:], uint64(h), 2)...)
	w = append(w, ':')
	w = append(w, conv.UtoaPad(tmp[:], uint64(mi), 2)...)
	w = append(w, ':')
	w = append(w, conv.UtoaPad(tmp[:], uint64(sec), 2)...)
	return w
}

// roundSpeed converts a speed reading to the logged whole-mph value,
// -1 when the reading is invalid. Rounds half up.
func roundSpeed(s types.GPSSample) int {
	if !s.SpeedValid {
		return -1
	}
	return int(s.SpeedMPH + 0.5)
}

// recordBuffer accumulates fixed-width records between flushes. The store is
// preallocated once; when it is full further records are dropped and counted
// rather than blocking the control loop.
type recordBuffer struct {
	data    []byte
	width   int
	max     int // capacity in records
	dropped int
}

func newRecordBuffer(width, maxRecords int) *recordBuffer {
	return &recordBuffer{
		data:  make([]byte, 0, width*maxRecords),
		width: width,
		max:   maxRecords,
	}
}

// Append stores one record. Returns false (and counts a drop) when full.
func (b *recordBuffer) Append(rec []byte) bool {
	if b.Records() >= b.max {
		b.dropped++
		return false
	}
	b.data = append(b.data, rec...)
	return true
}

func (b *recordBuffer) Records() int { return len(b.data) / b.width }

func (b *recordBuffer) Full() bool { return b.Records() >= b.max }

func (b *recordBuffer) Bytes() []byte { return b.data }

func (b *recordBuffer) Reset() { b.data = b.data[:0] }

// Discard drops the first n bytes, keeping any partially flushed tail.
func (b *recordBuffer) Discard(n int) {
	if n <= 0 {
		return
	}
	if n >= len(b.data) {
		b.data = b.data[:0]
		return
	}
	rem := copy(b.data, b.data[n:])
	b.data = b.data[:rem]
}

// TakeDropped returns and clears the drop counter.
func (b *recordBuffer) TakeDropped() int {
	n := b.dropped
	b.dropped = 0
	return n
}
