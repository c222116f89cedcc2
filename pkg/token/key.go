package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// KeyPrefix marks generated admin keys. The logger masks values carrying it.
const KeyPrefix = "mdk_"

// keyEntropy is the number of random bytes behind a generated key.
const keyEntropy = 32

// MinKeyLength is the shortest operator-supplied key accepted.
const MinKeyLength = 16

// ErrWeakKey rejects operator-supplied keys that are too short or contain
// whitespace.
var ErrWeakKey = errors.New("token: weak admin key")

// NewKey returns a fresh admin key: KeyPrefix followed by 43 characters of
// Base64 RawURL text.
func NewKey() (string, error) {
	b := make([]byte, keyEntropy)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token: read random: %w", err)
	}
	return KeyPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// CheckKey vets a key chosen by an operator before it is hashed.
func CheckKey(key string) error {
	if len(key) < MinKeyLength {
		return fmt.Errorf("%w: shorter than %d characters", ErrWeakKey, MinKeyLength)
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: contains whitespace", ErrWeakKey)
	}
	return nil
}

// Generated reports whether key has the shape NewKey produces.
func Generated(key string) bool {
	body, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok {
		return false
	}
	b, err := base64.RawURLEncoding.DecodeString(body)
	return err == nil && len(b) == keyEntropy
}
