// Package identity derives the opaque tokens used by session fencing: an
// unpredictable per-login session id and a coarse, purely diagnostic device
// signature.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
)

// ServerFingerprint is returned when no client context (user agent) is
// available, e.g. tests or non-interactive callers.
const ServerFingerprint = "device_server"

// NewSessionID returns a v4-UUID-shaped random token. It reads from the
// crypto source and falls back to math/rand if that fails; the token only
// has to be practically unique for fencing, not adversarially unique.
func NewSessionID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		for i := range b {
			b[i] = byte(mrand.Intn(256))
		}
	}
	// version 4, RFC 4122 variant
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80

	dst := make([]byte, 32)
	hex.Encode(dst, b[:])
	return string(dst[0:8]) + "-" + string(dst[8:12]) + "-" + string(dst[12:16]) + "-" + string(dst[16:20]) + "-" + string(dst[20:32])
}

// DeviceFingerprint folds a user-agent string into a short device_<hex> tag
// with a multiply-by-31 rolling hash. Collisions across same-model devices
// are expected and fine; the value is diagnostic only.
func DeviceFingerprint(userAgent string) string {
	if userAgent == "" {
		return ServerFingerprint
	}

	var h int32
	for _, c := range userAgent {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return fmt.Sprintf("device_%x", v)
}
