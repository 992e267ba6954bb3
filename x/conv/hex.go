package conv

const hexd = "0123456789ABCDEF"

// U32Hex writes 8-digit uppercase hex without 0x, zero-padded.
func U32Hex(buf []byte, n uint32) []byte {
	if len(buf) < 8 {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < 8; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return buf[i:]
}

// U32HexShort writes uppercase hex without leading zeros (minimum one
// digit). buf should be length >= 8.
func U32HexShort(buf []byte, n uint32) []byte {
	if len(buf) < 8 {
		return buf[:0]
	}
	i := len(buf)
	for {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
		if n == 0 {
			break
		}
	}
	return buf[i:]
}

// AppendHexByte appends two uppercase hex digits for b.
func AppendHexByte(dst []byte, b byte) []byte {
	return append(dst, hexd[b>>4], hexd[b&0xF])
}

// HexNybble decodes one hex digit; -1 if c is not a hex digit.
func HexNybble(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// HexByte decodes two hex digits; -1 on any bad digit.
func HexByte(hi, lo byte) int {
	h := HexNybble(hi)
	if h < 0 {
		return h
	}
	l := HexNybble(lo)
	if l < 0 {
		return l
	}
	return h<<4 | l
}

// ParseU32Hex decodes an unprefixed hex string into a uint32.
func ParseU32Hex(s string) (uint32, bool) {
	if len(s) == 0 || len(s) > 8 {
		return 0, false
	}
	var n uint32
	for i := 0; i < len(s); i++ {
		d := HexNybble(s[i])
		if d < 0 {
			return 0, false
		}
		n = n<<4 | uint32(d)
	}
	return n, true
}
