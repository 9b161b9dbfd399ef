package secrets

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	Time      = 2
	MemoryMB  = 16
	Threads   = 1
	KeyLen    = 32
	SaltBytes = 16
)

var (
	ErrEmptyPassword     = errors.New("empty password")
	ErrUnsupportedFormat = errors.New("unsupported hash format")
)

// HashPassword returns a PHC encoded argon2id hash of password+pepper.
func HashPassword(password, pepper string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey([]byte(password+pepper), salt, Time, MemoryMB*1024, Threads, KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, MemoryMB*1024, Time, Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks password+pepper against a hash produced by HashPassword.
func VerifyPassword(password, pepper, phc string) (bool, error) {
	if !strings.HasPrefix(phc, "$argon2id$") {
		return false, ErrUnsupportedFormat
	}
	parts := strings.Split(phc, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("invalid phc: %d segments", len(parts))
	}

	var m, t, p uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false, fmt.Errorf("parse params: %w", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decode key: %w", err)
	}

	got := argon2.IDKey([]byte(password+pepper), salt, t, m, uint8(p), uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
