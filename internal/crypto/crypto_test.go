package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	require.NoError(t, Init("test-key", "", false))

	enc, err := Encrypt("s3cret!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(enc, Prefix))
	assert.NotContains(t, enc, "s3cret!")

	plain, err := Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "s3cret!", plain)
}

func TestEncryptEmptyAndAlreadyEncrypted(t *testing.T) {
	require.NoError(t, Init("test-key", "", false))

	enc, err := Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", enc)

	once, err := Encrypt("value")
	require.NoError(t, err)
	twice, err := Encrypt(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice, "encrypting ciphertext must be a no-op")
}

func TestDecryptLegacyPlaintextPassesThrough(t *testing.T) {
	require.NoError(t, Init("test-key", "", false))

	plain, err := Decrypt("legacy-value")
	require.NoError(t, err)
	assert.Equal(t, "legacy-value", plain)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	require.NoError(t, Init("key-one", "", false))
	enc, err := Encrypt("payload")
	require.NoError(t, err)

	require.NoError(t, Init("key-two", "", false))
	_, err = Decrypt(enc)
	assert.Error(t, err)
}

func TestInitKeySelection(t *testing.T) {
	assert.ErrorIs(t, Init("", "", false), ErrNotConfigured)
	assert.ErrorIs(t, Init("", "", true), ErrNotConfigured)

	// Debug mode falls back to the session secret.
	require.NoError(t, Init("", "session-secret", true))
	enc, err := Encrypt("x")
	require.NoError(t, err)
	plain, err := Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "x", plain)

	// Outside debug the session secret is never used as key material.
	assert.ErrorIs(t, Init("", "session-secret", false), ErrNotConfigured)
}

func TestEncryptUniqueNonces(t *testing.T) {
	require.NoError(t, Init("test-key", "", false))

	a, err := Encrypt("same-value")
	require.NoError(t, err)
	b, err := Encrypt("same-value")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
