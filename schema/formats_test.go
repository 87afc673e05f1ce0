package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormats(t *testing.T) {
	tests := []struct {
		format string
		value  string
		want   bool
	}{
		{"f5name", "webPool_1.a-b", true},
		{"f5name", "9leading-digit", false},
		{"f5name", "has space", false},
		{"f5name", "", false},

		{"f5ip", "192.0.2.1", true},
		{"f5ip", "192.0.2.0/24", true},
		{"f5ip", "10.0.0.1%2", true},
		{"f5ip", "10.0.0.0%2/8", true},
		{"f5ip", "2001:db8::1", true},
		{"f5ip", "2001:db8::/64", true},
		{"f5ip", "not-an-ip", false},
		{"f5ip", "10.0.0.1%x", false},
		{"f5ip", "10.0.0.1/129", false},

		{"f5pointer", "/t1/app/pool", true},
		{"f5pointer", "@/pool", true},
		{"f5pointer", "has space", false},
		{"f5pointer", "", false},

		{"f5base64", "aGVsbG8=", true},
		{"f5base64", "!!!", false},

		{"date-time", "2026-08-30T12:00:00Z", true},
		{"date-time", "yesterday", false},

		{"uri", "https://example.com/policy.txt", true},
		{"uri", "/relative/path", false},
	}

	formats := builtinFormats()
	for _, tt := range tests {
		t.Run(tt.format+"/"+tt.value, func(t *testing.T) {
			fn, ok := formats[tt.format]
			assert.True(t, ok)
			assert.Equal(t, tt.want, fn(tt.value), "value %q", tt.value)
		})
	}
}
