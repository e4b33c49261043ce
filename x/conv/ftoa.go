package conv

// Ftoa writes v with exactly the given number of decimal places into buf,
// rounding half away from zero. Returns the used slice.
// No allocations; no fmt/strconv dependency.
func Ftoa(buf []byte, v float64, decimals int) []byte {
	if decimals < 0 {
		decimals = 0
	}
	neg := v < 0
	if neg {
		v = -v
	}
	scale := int64(1)
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	n := int64(v*float64(scale) + 0.5)
	ip := n / scale
	fp := n % scale

	w := buf[:0]
	if neg {
		w = append(w, '-')
	}
	var tmp [20]byte
	w = append(w, Utoa(tmp[:], uint64(ip))...)
	if decimals > 0 {
		w = append(w, '.')
		w = append(w, UtoaPad(tmp[:], uint64(fp), decimals)...)
	}
	return w
}
