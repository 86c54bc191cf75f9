package util

import "math/rand/v2"

// DefaultPortraits is the built-in pool of partner portrait URLs used when
// character creation supplies none.
var DefaultPortraits = []string{
	"https://free.picui.cn/free/2025/10/29/6901a144753fc.png",
	"https://free.picui.cn/free/2025/10/29/6901a1426a4f8.png",
	"https://free.picui.cn/free/2025/10/29/6901a142290e8.png",
	"https://free.picui.cn/free/2025/10/29/6901a14451555.png",
	"https://free.picui.cn/free/2025/10/29/6901a1428ad35.png",
}

// RandomPortrait picks a portrait URL from the default pool.
func RandomPortrait() string {
	return DefaultPortraits[rand.IntN(len(DefaultPortraits))]
}

// GenerateRandomID returns prefix followed by hexLength random hex digits.
// Message IDs only need uniqueness within a transcript, so math/rand/v2
// is enough; nothing here is security-sensitive.
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex returns a random lowercase hex string of the given
// length, or the empty string for non-positive lengths.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}
	const digits = "0123456789abcdef"
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = digits[rand.IntN(len(digits))]
	}
	return string(buf)
}
