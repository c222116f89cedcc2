package token

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/argon2"
)

func TestNewKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, err := NewKey()
		if err != nil {
			t.Fatalf("NewKey() error = %v", err)
		}
		if !strings.HasPrefix(key, KeyPrefix) || len(key) != len(KeyPrefix)+43 {
			t.Fatalf("NewKey() = %q, want %s plus 43 characters", key, KeyPrefix)
		}
		if !Generated(key) {
			t.Errorf("Generated(%q) = false", key)
		}
		if seen[key] {
			t.Fatalf("duplicate key %q", key)
		}
		seen[key] = true
	}
}

func TestGenerated(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"mdk_" + strings.Repeat("A", 43), true},
		{strings.Repeat("A", 43), false},
		{"mdk_" + strings.Repeat("A", 42), false},
		{"mdk_" + strings.Repeat("+", 43), false},
		{"mdk_", false},
	}
	for _, tt := range tests {
		if got := Generated(tt.key); got != tt.want {
			t.Errorf("Generated(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestCheckKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"generated shape", "mdk_" + strings.Repeat("x", 43), false},
		{"operator chosen", "correct-horse-battery", false},
		{"exactly minimum", strings.Repeat("k", MinKeyLength), false},
		{"too short", "short-key", true},
		{"empty", "", true},
		{"inner space", "correct horse battery", true},
		{"trailing newline", "correct-horse-battery\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckKey(tt.key)
			if tt.wantErr != (err != nil) {
				t.Fatalf("CheckKey(%q) = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrWeakKey) {
				t.Errorf("CheckKey(%q) = %v, want ErrWeakKey", tt.key, err)
			}
		})
	}
}

func TestHashVerify(t *testing.T) {
	hash, err := Hash("mdk_secret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=16384,t=2,p=2$") {
		t.Errorf("Hash() = %q, unexpected format", hash)
	}
	if err := Validate(hash); err != nil {
		t.Errorf("Validate(Hash()) error = %v", err)
	}

	if !Verify("mdk_secret", hash) {
		t.Error("Verify() should accept the hashed secret")
	}
	if Verify("mdk_other", hash) {
		t.Error("Verify() should reject a different secret")
	}
}

func TestHash_Salted(t *testing.T) {
	h1, _ := Hash("same")
	h2, _ := Hash("same")
	if h1 == h2 {
		t.Error("Hash() should use a random salt")
	}
}

func TestVerify_CustomParameters(t *testing.T) {
	// Cost parameters are taken from the hash, not the defaults.
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte("pw"), salt, 1, 8192, 1, 16)
	hash := "$argon2id$v=19$m=8192,t=1,p=1$" +
		base64.RawStdEncoding.EncodeToString(salt) + "$" +
		base64.RawStdEncoding.EncodeToString(key)

	if !Verify("pw", hash) {
		t.Error("Verify() should honour the parameters embedded in the hash")
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"wrong algorithm", "$argon2i$v=19$m=16384,t=2,p=2$c2FsdA$a2V5"},
		{"wrong version", "$argon2id$v=16$m=16384,t=2,p=2$c2FsdA$a2V5"},
		{"bad params", "$argon2id$v=19$memory$c2FsdA$a2V5"},
		{"zero cost", "$argon2id$v=19$m=0,t=2,p=2$c2FsdA$a2V5"},
		{"bad salt", "$argon2id$v=19$m=16384,t=2,p=2$!!!$a2V5"},
		{"missing key", "$argon2id$v=19$m=16384,t=2,p=2$c2FsdA$"},
		{"sha256 hex", "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.hash); !errors.Is(err, ErrInvalidHash) {
				t.Errorf("Validate(%q) error = %v, want ErrInvalidHash", tt.hash, err)
			}
			if Verify("anything", tt.hash) {
				t.Errorf("Verify() accepted invalid hash %q", tt.hash)
			}
		})
	}
}
