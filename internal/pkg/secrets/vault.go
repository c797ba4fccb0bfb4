package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/subamericanetwork/nx8up/internal/pkg/env"
)

// Vault seals and opens small secrets (OAuth tokens) with an AEAD cipher.
// Every credential column write and read goes through a Vault; there is no
// plaintext path into the database.
type Vault struct {
	key []byte
}

var ErrNoKey = errors.New("secrets: SOCIAL_TOKEN_KEY is not configured")

// NewVaultFromEnv derives the sealing key from SOCIAL_TOKEN_KEY.
func NewVaultFromEnv() (*Vault, error) {
	raw := strings.TrimSpace(env.GetEnv("SOCIAL_TOKEN_KEY", ""))
	if raw == "" {
		return nil, ErrNoKey
	}
	return NewVault(raw)
}

// NewVault builds a vault from a passphrase of any length.
func NewVault(passphrase string) (*Vault, error) {
	if passphrase == "" {
		return nil, ErrNoKey
	}
	sum := sha256.Sum256([]byte(passphrase))
	return &Vault{key: sum[:]}, nil
}

// Seal encrypts plaintext and returns a base64 token with the nonce prepended.
// Empty input seals to an empty string so optional refresh tokens stay empty.
func (v *Vault) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a token produced by Seal.
func (v *Vault) Open(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("secrets: invalid ciphertext encoding: %w", err)
	}
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("secrets: ciphertext too short")
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("secrets: open failed: %w", err)
	}
	return string(plain), nil
}
