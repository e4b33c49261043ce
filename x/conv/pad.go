package conv

// UtoaPad writes n zero-padded to exactly width digits. High digits beyond
// width are discarded, so the result always occupies width bytes.
func UtoaPad(buf []byte, n uint64, width int) []byte {
	if width <= 0 {
		return buf[:0]
	}
	if width > len(buf) {
		width = len(buf)
	}
	for i := width - 1; i >= 0; i-- {
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return buf[:width]
}
