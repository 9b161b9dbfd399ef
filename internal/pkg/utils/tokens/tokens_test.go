package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"valid", "Bearer sk-ul-abc", "abc", true},
		{"missing scheme", "sk-ul-abc", "", false},
		{"wrong prefix", "Bearer sk-xx-abc", "", false},
		{"empty secret", "Bearer sk-ul-", "", false},
		{"empty header", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseBearer(tt.header, "sk-ul-")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHMAC256Hex(t *testing.T) {
	a := HMAC256Hex("pepper", "secret")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HMAC256Hex("pepper", "secret"))
	assert.NotEqual(t, a, HMAC256Hex("other", "secret"))
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("pepper", "abc", "abc"))
	assert.False(t, Matches("pepper", "abc", "abd"))
	assert.False(t, Matches("pepper", "", "abc"))
}
