package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	apiKeyPrefixBytes = 6
	apiKeySecretBytes = 24
)

// KeyHasher defines behavior for hashing and comparing API key secrets.
type KeyHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

// BcryptKeyHasher is a KeyHasher implementation using bcrypt.
type BcryptKeyHasher struct {
	cost int
}

// NewBcryptKeyHasher creates a new BcryptKeyHasher with default cost.
func NewBcryptKeyHasher() *BcryptKeyHasher {
	return &BcryptKeyHasher{
		cost: bcrypt.DefaultCost,
	}
}

// NewBcryptKeyHasherWithCost allows you to specify a custom bcrypt cost.
func NewBcryptKeyHasherWithCost(cost int) *BcryptKeyHasher {
	return &BcryptKeyHasher{
		cost: cost,
	}
}

// Hash hashes the given secret using bcrypt.
func (h *BcryptKeyHasher) Hash(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Compare returns nil when plain matches hash.
func (h *BcryptKeyHasher) Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// APIKey is a credential of the form "<prefix>.<secret>". The prefix is stored
// in clear to find the owner; only a hash of the secret is stored.
type APIKey struct {
	Prefix string
	Secret string
}

func (k APIKey) String() string {
	return k.Prefix + "." + k.Secret
}

// GenerateAPIKey returns a new random API key.
func GenerateAPIKey() (APIKey, error) {
	prefix, err := randomHex(apiKeyPrefixBytes)
	if err != nil {
		return APIKey{}, fmt.Errorf("generate api key prefix: %w", err)
	}
	secret, err := randomHex(apiKeySecretBytes)
	if err != nil {
		return APIKey{}, fmt.Errorf("generate api key secret: %w", err)
	}
	return APIKey{Prefix: prefix, Secret: secret}, nil
}

// ParseAPIKey splits a raw key into its prefix and secret.
func ParseAPIKey(raw string) (APIKey, bool) {
	prefix, secret, ok := strings.Cut(strings.TrimSpace(raw), ".")
	if !ok || prefix == "" || secret == "" {
		return APIKey{}, false
	}
	return APIKey{Prefix: prefix, Secret: secret}, true
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
