package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Default argon2id cost parameters.
const (
	DefaultMemory  uint32 = 16384 // KiB
	DefaultTime    uint32 = 2
	DefaultThreads uint8  = 2
	DefaultKeyLen  uint32 = 32
	saltLen               = 16
)

// ErrInvalidHash is returned for strings that are not argon2id PHC hashes.
var ErrInvalidHash = errors.New("token: invalid argon2id hash")

type params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	hash    []byte
}

// Hash derives the argon2id PHC string of secret with a random salt.
func Hash(secret string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(secret), salt, DefaultTime, DefaultMemory, DefaultThreads, DefaultKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, DefaultMemory, DefaultTime, DefaultThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether secret matches the PHC hash. Comparison is
// constant-time.
func Verify(secret, hash string) bool {
	p, err := parse(hash)
	if err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(secret), p.salt, p.time, p.memory, p.threads, uint32(len(p.hash)))
	return subtle.ConstantTimeCompare(computed, p.hash) == 1
}

// Validate checks that hash is a well-formed argon2id PHC string.
func Validate(hash string) error {
	_, err := parse(hash)
	return err
}

func parse(hash string) (*params, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidHash, parts[2])
	}

	p := &params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, fmt.Errorf("%w: bad parameters %q", ErrInvalidHash, parts[3])
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return nil, fmt.Errorf("%w: zero cost parameter", ErrInvalidHash)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.hash) == 0 {
		return nil, fmt.Errorf("%w: bad key", ErrInvalidHash)
	}
	return p, nil
}
