package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "operator-provisioned-master-secret"

func TestCipher_RoundTrip(t *testing.T) {
	c := NewCipher(testSecret)

	for _, plaintext := range []string{
		"sk-ant-abcdefgh",
		"sk-ant-api03-" + string(bytes.Repeat([]byte("x"), 90)),
		"sk-ant-ünïcødé-key",
	} {
		blob, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		assert.Len(t, blob, headerSize+len(plaintext))

		got, err := c.Decrypt(blob)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestCipher_StringRoundTrip(t *testing.T) {
	c := NewCipher(testSecret)

	encoded, err := c.EncryptString("sk-ant-abcdefgh")
	require.NoError(t, err)
	assert.NotContains(t, encoded, "sk-ant-")

	got, err := c.DecryptString(encoded)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-abcdefgh", got)
}

func TestCipher_SaltAndNonceAreRandom(t *testing.T) {
	c := NewCipher(testSecret)

	a, err := c.Encrypt("sk-ant-abcdefgh")
	require.NoError(t, err)
	b, err := c.Encrypt("sk-ant-abcdefgh")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a[:SaltSize], b[:SaltSize], "salts must differ")
	assert.NotEqual(t, a[SaltSize:SaltSize+NonceSize], b[SaltSize:SaltSize+NonceSize], "nonces must differ")
}

func TestCipher_TamperDetection(t *testing.T) {
	c := NewCipher(testSecret)
	blob, err := c.Encrypt("sk-ant-abcdefgh")
	require.NoError(t, err)

	// One flipped bit per byte covers salt, nonce, tag and ciphertext regions
	// while keeping the PBKDF2 cost of the test bounded.
	for i := range blob {
		tampered := bytes.Clone(blob)
		tampered[i] ^= 1 << (i % 8)

		got, err := c.Decrypt(tampered)
		require.ErrorIs(t, err, ErrDecryptionFailed, "byte %d", i)
		assert.Empty(t, got, "byte %d", i)
	}
}

func TestCipher_WrongSecretFails(t *testing.T) {
	blob, err := NewCipher(testSecret).Encrypt("sk-ant-abcdefgh")
	require.NoError(t, err)

	got, err := NewCipher("a-different-master-secret").Decrypt(blob)
	require.ErrorIs(t, err, ErrDecryptionFailed)
	assert.Empty(t, got)
}

func TestCipher_MalformedBlobs(t *testing.T) {
	c := NewCipher(testSecret)

	tests := []struct {
		name string
		blob []byte
	}{
		{name: "nil", blob: nil},
		{name: "empty", blob: []byte{}},
		{name: "header only", blob: make([]byte, headerSize)},
		{name: "one byte short of header", blob: make([]byte, headerSize-1)},
		{name: "zeroed with payload", blob: make([]byte, headerSize+8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Decrypt(tt.blob)
			require.ErrorIs(t, err, ErrDecryptionFailed)
			assert.Empty(t, got)
		})
	}
}

func TestCipher_DecryptStringRejectsBadEncoding(t *testing.T) {
	c := NewCipher(testSecret)

	_, err := c.DecryptString("%%% not base64 %%%")
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestCipher_EmptyPlaintext(t *testing.T) {
	c := NewCipher(testSecret)

	_, err := c.Encrypt("")
	require.ErrorIs(t, err, ErrEmptyPlaintext)
}

func TestCipher_MissingMasterSecret(t *testing.T) {
	c := NewCipher("")
	assert.False(t, c.Configured())

	_, err := c.Encrypt("sk-ant-abcdefgh")
	require.ErrorIs(t, err, ErrMasterSecretMissing)

	_, err = c.Decrypt(make([]byte, headerSize+8))
	require.ErrorIs(t, err, ErrMasterSecretMissing)
	assert.NotErrorIs(t, err, ErrDecryptionFailed)

	_, err = c.DecryptString("anything")
	require.ErrorIs(t, err, ErrMasterSecretMissing)
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, SaltSize)

	k1 := DeriveKey([]byte("master"), salt)
	k2 := DeriveKey([]byte("master"), salt)
	k3 := DeriveKey([]byte("master"), bytes.Repeat([]byte{8}, SaltSize))

	assert.Len(t, k1, KeySize)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}
