package session

const hexDigits = "0123456789ABCDEF"

// Render formats a batch of device bytes for display. Bytes strictly below
// threshold become a <0xNN> token, everything else passes through raw.
// A threshold of 0 leaves the batch untouched.
func Render(batch []byte, threshold byte) []byte {
	return AppendRender(make([]byte, 0, len(batch)), batch, threshold)
}

// AppendRender is Render appending to dst
func AppendRender(dst, batch []byte, threshold byte) []byte {
	if threshold == 0 {
		return append(dst, batch...)
	}
	for _, b := range batch {
		if b < threshold {
			dst = append(dst, '<', '0', 'x', hexDigits[b>>4], hexDigits[b&0x0f], '>')
			continue
		}
		dst = append(dst, b)
	}
	return dst
}
