// Package seal is the encrypt/decrypt capability used for content at rest in
// the remote store. Message bodies are plaintext on the device and sealed
// before they leave it.
package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// Sealer encrypts and decrypts opaque byte payloads. Key custody lives with
// the caller; this package only consumes the capability.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// AESGCM seals payloads with AES-256-GCM, prefixing each ciphertext with its
// nonce.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM builds a sealer from a 32-byte key.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("seal: key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

// Make sure we conform to the interface.
var _ Sealer = (*AESGCM)(nil)

// Seal encrypts plaintext.
func (s *AESGCM) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("seal: nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a payload produced by Seal.
func (s *AESGCM) Open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < s.aead.NonceSize() {
		return nil, fmt.Errorf("seal: ciphertext shorter than nonce")
	}
	nonce, rest := ciphertext[:s.aead.NonceSize()], ciphertext[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, rest, nil)
	if err != nil {
		return nil, fmt.Errorf("seal: open: %w", err)
	}
	return plaintext, nil
}

// Noop passes payloads through unchanged. Test and development use only.
type Noop struct{}

func (Noop) Seal(plaintext []byte) ([]byte, error)  { return plaintext, nil }
func (Noop) Open(ciphertext []byte) ([]byte, error) { return ciphertext, nil }
