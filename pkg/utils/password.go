package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	saltLength = 16
	keyLength  = 32

	DefaultTimeCost    = 3
	DefaultMemoryCost  = 64 * 1024
	DefaultParallelism = 2

	// Bounds for parameters read back from stored digests.
	minMemoryKiB = 8
	maxMemoryKiB = 4 * 1024 * 1024
	maxTimeCost  = 64
	maxKeyLength = 1024
)

// ErrInvalidHash is returned when a stored digest cannot be parsed.
var ErrInvalidHash = errors.New("invalid hash format")

// PasswordHasher hashes passwords with Argon2id and encodes the cost
// parameters into the digest so they can change without breaking old hashes.
type PasswordHasher struct {
	Time        uint32
	MemoryKiB   uint32
	Parallelism uint8
}

// NewPasswordHasher returns a hasher with the given Argon2id cost. Zero values
// fall back to the defaults.
func NewPasswordHasher(time, memoryKiB uint32, parallelism uint8) *PasswordHasher {
	h := &PasswordHasher{Time: time, MemoryKiB: memoryKiB, Parallelism: parallelism}
	if h.Time == 0 {
		h.Time = DefaultTimeCost
	}
	if h.MemoryKiB == 0 {
		h.MemoryKiB = DefaultMemoryCost
	}
	if h.Parallelism == 0 {
		h.Parallelism = DefaultParallelism
	}
	return h
}

// Hash hashes a password using Argon2id with a fresh random salt.
// Format: $argon2id$v=19$m=65536,t=3,p=2$salt$hash
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.Time, h.MemoryKiB, h.Parallelism, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.MemoryKiB, h.Time, h.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the digest. Argon2id digests are
// checked with the parameters stored in them; bcrypt digests from earlier
// accounts are accepted as well.
func (h *PasswordHasher) Verify(password, digest string) (bool, error) {
	if isBcrypt(digest) {
		err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
		}
		return true, nil
	}

	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}

	var memory, time uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &parallelism); err != nil {
		return false, ErrInvalidHash
	}
	if time < 1 || time > maxTimeCost || parallelism < 1 ||
		memory < minMemoryKiB || memory > maxMemoryKiB {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxKeyLength {
		return false, ErrInvalidHash
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}
