// Package byteconv formats machine words as fixed-width upper case hex.
package byteconv

const hextableUpper = "0123456789ABCDEF"

// Btoh renders src as hex and keeps the last n digits.
func Btoh(src []byte, n int) string {
	dst := make([]byte, len(src)*2)
	j := 0
	for _, v := range src {
		dst[j] = hextableUpper[v>>4]
		dst[j+1] = hextableUpper[v&0x0f]
		j += 2
	}
	if n > len(dst) {
		n = len(dst)
	}
	return string(dst[len(dst)-n:])
}

// U16tob splits i into big endian bytes.
func U16tob(i uint16) []byte {
	var b [2]byte
	b[0] = byte(i >> 8)
	b[1] = byte(i)
	return b[:]
}

// Word renders i with n hex digits, e.g. Word(0x200, 3) == "200".
func Word(i uint16, n int) string {
	return Btoh(U16tob(i), n)
}

// Addr renders a 12 bit machine address with a 0x prefix.
func Addr(i uint16) string {
	return "0x" + Word(i, 3)
}
