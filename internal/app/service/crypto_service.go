package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
)

// CryptoService encrypts and decrypts secret strings before and after
// persistence. AES-256-GCM with a random nonce per message; the nonce is
// prepended to the ciphertext.
type CryptoService interface {
	// Encrypt returns the base64 ciphertext of plaintext.
	Encrypt(plaintext string) (string, error)

	// Decrypt reverses Encrypt. Fails with ErrDecryptionFailed on any
	// ciphertext that does not authenticate (tampered or wrong key); it
	// never returns garbage.
	Decrypt(ciphertext string) (string, error)
}

// cryptoService implements CryptoService.
type cryptoService struct {
	aead cipher.AEAD
}

// NewCryptoService creates a CryptoService from a 32-byte key. A missing or
// short key is a startup-fatal configuration error.
func NewCryptoService(key []byte) (CryptoService, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("crypto service: key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto service: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto service: %w", err)
	}

	return &cryptoService{aead: aead}, nil
}

func (s *cryptoService) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *cryptoService) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", domainerror.ErrDecryptionFailed.WithCause(err)
	}

	if len(raw) < s.aead.NonceSize() {
		return "", domainerror.ErrDecryptionFailed.WithCause(errors.New("ciphertext shorter than nonce"))
	}

	nonce, sealed := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", domainerror.ErrDecryptionFailed.WithCause(err)
	}

	return string(plaintext), nil
}
