package crypto

import "strconv"

// LegacyHash computes the rolling hash old installations stored before
// salted derivation was introduced: h = h*31 + byte, truncated to a signed
// 32-bit integer and rendered as its decimal string. It is not a security
// boundary; records produced by it are upgraded on first successful verify.
func LegacyHash(secret []byte) []byte {
	var h int32
	for _, c := range secret {
		h = h*31 + int32(c)
	}
	return []byte(strconv.FormatInt(int64(h), 10))
}
