package platform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	cipher, err := NewCipher("unit-test-secret")
	require.NoError(t, err)

	for _, plaintext := range []string{
		"sk-test-1234567890",
		"",
		"exactly sixteen!", // one full block, forces a padding-only block
		"unicode: clé privée",
	} {
		encrypted, err := cipher.Encrypt(plaintext)
		require.NoError(t, err)
		require.Contains(t, encrypted, ":")

		decrypted, err := cipher.Decrypt(encrypted)
		require.NoError(t, err)
		require.Equal(t, plaintext, decrypted)
	}
}

func TestCipher_EncryptUsesFreshIV(t *testing.T) {
	cipher, err := NewCipher("unit-test-secret")
	require.NoError(t, err)

	first, err := cipher.Encrypt("same input")
	require.NoError(t, err)
	second, err := cipher.Encrypt("same input")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestCipher_DecryptRejectsMalformedInput(t *testing.T) {
	cipher, err := NewCipher("unit-test-secret")
	require.NoError(t, err)

	for _, input := range []string{
		"",
		"no-separator",
		":missingiv",
		"missingcipher:",
		"zz:zz", // not hex
		"abcd:abcd", // wrong lengths
	} {
		_, err := cipher.Decrypt(input)
		require.Error(t, err, "input %q", input)
	}
}

func TestCipher_WrongKeyFails(t *testing.T) {
	cipher, err := NewCipher("secret-one")
	require.NoError(t, err)
	other, err := NewCipher("secret-two")
	require.NoError(t, err)

	encrypted, err := cipher.Encrypt("sk-test-key")
	require.NoError(t, err)

	decrypted, err := other.Decrypt(encrypted)
	if err == nil {
		// CBC with random padding bytes can occasionally unpad cleanly;
		// the content must still not match.
		require.NotEqual(t, "sk-test-key", decrypted)
	}
}

func TestCipher_FormatIsIvHexColonCipherHex(t *testing.T) {
	cipher, err := NewCipher("unit-test-secret")
	require.NoError(t, err)

	encrypted, err := cipher.Encrypt("value")
	require.NoError(t, err)

	parts := strings.SplitN(encrypted, ":", 2)
	require.Len(t, parts, 2)
	require.Len(t, parts[0], 32) // 16-byte IV, hex encoded
	require.True(t, len(parts[1])%32 == 0)
}
