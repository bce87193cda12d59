package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"strings"
)

const encryptedPrefix = "enc:"

var (
	ErrInvalidCryptoKey = errors.New("CRYPTO_KEY must be 32 bytes")
	ErrCryptoDisabled   = errors.New("encrypted value found but CRYPTO_KEY is not set")
)

var key []byte

// InitCrypto loads CRYPTO_KEY. An unset key disables decryption of "enc:"
// values; a key of the wrong length is an error.
func InitCrypto() error {
	k := os.Getenv("CRYPTO_KEY")
	if k == "" {
		key = nil
		return nil
	}
	if len(k) != 32 {
		return ErrInvalidCryptoKey
	}
	key = []byte(k)
	return nil
}

func Encrypt(text string) (string, error) {
	if key == nil {
		return "", ErrCryptoDisabled
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := aead.Seal(nonce, nonce, []byte(text), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func Decrypt(encoded string) (string, error) {
	if key == nil {
		return "", ErrCryptoDisabled
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	nonceSize := aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// ResolveSecret returns value unchanged unless it carries the "enc:" prefix,
// in which case the remainder is decrypted.
func ResolveSecret(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, encryptedPrefix) {
		return value, nil
	}
	return Decrypt(strings.TrimPrefix(value, encryptedPrefix))
}

// SealSecret encrypts value and returns it in the form ResolveSecret accepts.
func SealSecret(value string) (string, error) {
	ciphertext, err := Encrypt(value)
	if err != nil {
		return "", err
	}
	return encryptedPrefix + ciphertext, nil
}
