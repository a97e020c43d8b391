package identity

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uuidV4 = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestNewSessionID_Shape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		require.Regexp(t, uuidV4, id)
		assert.False(t, seen[id], "session ids must not repeat: %s", id)
		seen[id] = true
	}
}

func TestDeviceFingerprint(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
	}{
		{"desktop chrome", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"},
		{"mobile safari", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"},
		{"curl", "curl/8.4.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := DeviceFingerprint(tt.userAgent)
			assert.Regexp(t, `^device_[0-9a-f]+$`, fp)
			// stable for the same input
			assert.Equal(t, fp, DeviceFingerprint(tt.userAgent))
		})
	}
}

func TestDeviceFingerprint_EmptyAgent(t *testing.T) {
	assert.Equal(t, ServerFingerprint, DeviceFingerprint(""))
}

func TestDeviceFingerprint_DistinctAgents(t *testing.T) {
	a := DeviceFingerprint("Mozilla/5.0 (X11; Linux x86_64)")
	b := DeviceFingerprint("Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	assert.NotEqual(t, a, b)
}
