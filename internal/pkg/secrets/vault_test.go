package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVaultRoundTrip(t *testing.T) {
	v, err := NewVault("test-passphrase")
	assert.NoError(t, err)

	sealed, err := v.Seal("ya29.access-token")
	assert.NoError(t, err)
	assert.NotEqual(t, "ya29.access-token", sealed)

	plain, err := v.Open(sealed)
	assert.NoError(t, err)
	assert.Equal(t, "ya29.access-token", plain)
}

func TestVaultSealEmpty(t *testing.T) {
	v, _ := NewVault("k")

	sealed, err := v.Seal("")
	assert.NoError(t, err)
	assert.Equal(t, "", sealed)

	plain, err := v.Open("")
	assert.NoError(t, err)
	assert.Equal(t, "", plain)
}

func TestVaultNonDeterministicNonce(t *testing.T) {
	v, _ := NewVault("k")

	a, err := v.Seal("secret")
	assert.NoError(t, err)
	b, err := v.Seal("secret")
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVaultWrongKey(t *testing.T) {
	v1, _ := NewVault("key-one")
	v2, _ := NewVault("key-two")

	sealed, _ := v1.Seal("secret")
	_, err := v2.Open(sealed)
	assert.Error(t, err)
}

func TestVaultRejectsGarbage(t *testing.T) {
	v, _ := NewVault("k")

	_, err := v.Open("not base64 !!!")
	assert.Error(t, err)

	_, err = v.Open("YWJj") // base64 but too short
	assert.Error(t, err)
}

func TestNewVaultRequiresKey(t *testing.T) {
	_, err := NewVault("")
	assert.ErrorIs(t, err, ErrNoKey)
}
