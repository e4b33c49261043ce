package logger

import (
	"tracklog-go/types"
	"tracklog-go/x/conv"
)

// allocateName picks the first free log name of the form L<YY><MM><DD><NN>.CSV
// in 8.3 style. NN scans 00..99; a fully used day falls back to overwriting
// slot 99 rather than refusing to log. Unknown date fields render as zeros so
// a receiver without a fix still gets a stable name.
func allocateName(med types.Medium, s types.GPSSample) string {
	var yy, mm, dd int
	if s.DateValid {
		yy = s.Year % 100
		mm = s.Month
		dd = s.Day
	}

	var tmp [2]byte
	base := make([]byte, 0, 13)
	base = append(base, 'L')
	base = append(base, conv.UtoaPad(tmp[:], uint64(yy), 2)...)
	base = append(base, conv.UtoaPad(tmp[:], uint64(mm), 2)...)
	base = append(base, conv.UtoaPad(tmp[:], uint64(dd), 2)...)

	for nn := 0; nn < 100; nn++ {
		name := string(append(append(append([]byte{}, base...), conv.UtoaPad(tmp[:], uint64(nn), 2)...), ".CSV"...))
		if !med.Exists(name) {
			return name
		}
	}
	return string(append(append(base, "99"...), ".CSV"...))
}
