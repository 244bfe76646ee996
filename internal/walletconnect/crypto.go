package walletconnect

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
)

// encryptionPayload is the v1 bridge envelope: AES-256-CBC ciphertext with an
// HMAC-SHA256 over ciphertext plus IV, all fields hex encoded.
type encryptionPayload struct {
	Data string `json:"data"`
	HMAC string `json:"hmac"`
	IV   string `json:"iv"`
}

func encryptPayload(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "cipher")
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, errors.Wrap(err, "iv")
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	mac := hmac.New(sha256.New, key)
	mac.Write(ciphertext)
	mac.Write(iv)

	return json.Marshal(encryptionPayload{
		Data: hex.EncodeToString(ciphertext),
		HMAC: hex.EncodeToString(mac.Sum(nil)),
		IV:   hex.EncodeToString(iv),
	})
}

func decryptPayload(key, envelope []byte) ([]byte, error) {
	var payload encryptionPayload
	if err := json.Unmarshal(envelope, &payload); err != nil {
		return nil, errors.Wrap(err, "envelope")
	}

	ciphertext, err := hex.DecodeString(payload.Data)
	if err != nil {
		return nil, errors.Wrap(err, "data")
	}
	iv, err := hex.DecodeString(payload.IV)
	if err != nil {
		return nil, errors.Wrap(err, "iv")
	}
	sum, err := hex.DecodeString(payload.HMAC)
	if err != nil {
		return nil, errors.Wrap(err, "hmac")
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(ciphertext)
	mac.Write(iv)
	if !hmac.Equal(mac.Sum(nil), sum) {
		return nil, errors.New("hmac mismatch")
	}

	if len(iv) != aes.BlockSize || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("malformed ciphertext")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "cipher")
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return pkcs7Unpad(plaintext, aes.BlockSize)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padding")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
