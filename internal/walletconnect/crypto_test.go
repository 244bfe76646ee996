package walletconnect

import (
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)
	plaintext := []byte(`{"id":1,"jsonrpc":"2.0","method":"wc_sessionRequest"}`)

	envelope, err := encryptPayload(key, plaintext)
	require.NoError(t, err)

	var payload encryptionPayload
	require.NoError(t, json.Unmarshal(envelope, &payload))
	assert.NotEmpty(t, payload.Data)
	assert.NotEmpty(t, payload.HMAC)
	assert.Len(t, payload.IV, 32) // 16 bytes hex encoded

	out, err := decryptPayload(key, envelope)
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	key := testKey(t)
	envelope, err := encryptPayload(key, []byte("payload"))
	require.NoError(t, err)

	var payload encryptionPayload
	require.NoError(t, json.Unmarshal(envelope, &payload))
	// flip one hex digit of the ciphertext
	data := []byte(payload.Data)
	if data[0] == '0' {
		data[0] = '1'
	} else {
		data[0] = '0'
	}
	payload.Data = string(data)
	tampered, err := json.Marshal(payload)
	require.NoError(t, err)

	_, err = decryptPayload(key, tampered)
	assert.ErrorContains(t, err, "hmac mismatch")
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	envelope, err := encryptPayload(testKey(t), []byte("payload"))
	require.NoError(t, err)

	_, err = decryptPayload(testKey(t), envelope)
	assert.Error(t, err)
}

func TestPKCS7(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 100} {
		data := make([]byte, n)
		padded := pkcs7Pad(data, 16)
		assert.Zero(t, len(padded)%16)
		out, err := pkcs7Unpad(padded, 16)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	}

	_, err := pkcs7Unpad([]byte{}, 16)
	assert.Error(t, err)
	_, err = pkcs7Unpad(make([]byte, 16), 16) // trailing 0 is never valid padding
	assert.Error(t, err)
}
