package config_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
)

const testKey = "01234567890123456789012345678901"

func TestInitCrypto(t *testing.T) {
	t.Run("ShortKey", func(t *testing.T) {
		t.Setenv("CRYPTO_KEY", "short_key")
		if err := config.InitCrypto(); !errors.Is(err, config.ErrInvalidCryptoKey) {
			t.Errorf("expected ErrInvalidCryptoKey, got %v", err)
		}
	})

	t.Run("ValidKey", func(t *testing.T) {
		t.Setenv("CRYPTO_KEY", testKey)
		if err := config.InitCrypto(); err != nil {
			t.Fatalf("InitCrypto failed: %v", err)
		}
	})

	t.Run("UnsetKeyDisablesCrypto", func(t *testing.T) {
		t.Setenv("CRYPTO_KEY", "")
		if err := config.InitCrypto(); err != nil {
			t.Fatalf("InitCrypto failed: %v", err)
		}
		if _, err := config.Encrypt("x"); !errors.Is(err, config.ErrCryptoDisabled) {
			t.Errorf("expected ErrCryptoDisabled, got %v", err)
		}
	})
}

func TestEncryptDecrypt(t *testing.T) {
	t.Setenv("CRYPTO_KEY", testKey)
	if err := config.InitCrypto(); err != nil {
		t.Fatalf("InitCrypto failed: %v", err)
	}

	t.Run("SimpleText", func(t *testing.T) {
		plaintext := "secret notes token"

		ciphertext, err := config.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		decrypted, err := config.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if decrypted != plaintext {
			t.Errorf("decrypted %q does not match original %q", decrypted, plaintext)
		}

		ciphertext2, _ := config.Encrypt(plaintext)
		if ciphertext == ciphertext2 {
			t.Errorf("encryption is not randomized, ciphertexts should differ")
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		ciphertext, err := config.Encrypt("")
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		decrypted, err := config.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if decrypted != "" {
			t.Errorf("expected empty plaintext, got %q", decrypted)
		}
	})

	t.Run("ShortCiphertext", func(t *testing.T) {
		if _, err := config.Decrypt("YWJj"); err == nil {
			t.Errorf("expected error for truncated ciphertext")
		}
	})
}

func TestResolveSecret(t *testing.T) {
	t.Setenv("CRYPTO_KEY", testKey)
	if err := config.InitCrypto(); err != nil {
		t.Fatalf("InitCrypto failed: %v", err)
	}

	t.Run("PlainValuePassesThrough", func(t *testing.T) {
		got, err := config.ResolveSecret("  plain-token ")
		if err != nil {
			t.Fatalf("ResolveSecret failed: %v", err)
		}
		if got != "plain-token" {
			t.Errorf("expected plain-token, got %q", got)
		}
	})

	t.Run("SealedValueRoundTrips", func(t *testing.T) {
		sealed, err := config.SealSecret("xoxb-123")
		if err != nil {
			t.Fatalf("SealSecret failed: %v", err)
		}
		if !strings.HasPrefix(sealed, "enc:") {
			t.Fatalf("sealed value should carry the enc: prefix, got %q", sealed)
		}
		got, err := config.ResolveSecret(sealed)
		if err != nil {
			t.Fatalf("ResolveSecret failed: %v", err)
		}
		if got != "xoxb-123" {
			t.Errorf("expected xoxb-123, got %q", got)
		}
	})
}
