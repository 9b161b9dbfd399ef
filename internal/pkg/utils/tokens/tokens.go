package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ParseBearer extracts the secret from an "Authorization: Bearer <prefix><secret>" value.
func ParseBearer(header, prefix string) (secret string, ok bool) {
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", false
	}
	secret, found = strings.CutPrefix(strings.TrimSpace(raw), prefix)
	if !found || secret == "" {
		return "", false
	}
	return secret, true
}

func HMAC256Hex(pepper, secret string) string {
	m := hmac.New(sha256.New, []byte(pepper))
	m.Write([]byte(secret))
	return hex.EncodeToString(m.Sum(nil))
}

// Matches reports whether secret and want digest to the same HMAC under pepper.
func Matches(pepper, secret, want string) bool {
	a := HMAC256Hex(pepper, secret)
	b := HMAC256Hex(pepper, want)
	return hmac.Equal([]byte(a), []byte(b))
}
