package scripting

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

// SealedExt marks a script sealed with Seal.
const SealedExt = ".lua.sealed"

var (
	ErrNoKey     = errors.New("scripting: sealed script but no key configured")
	ErrBadKey    = errors.New("scripting: key must be 32 bytes")
	ErrTruncated = errors.New("scripting: sealed script truncated")
)

// Seal encrypts a script with XChaCha20-Poly1305. The random nonce is
// prepended to the ciphertext.
func Seal(key, plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrBadKey
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("seal nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

// Open reverses Seal.
func Open(key, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrBadKey
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrTruncated
	}
	nonce, ct := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("open sealed script: %w", err)
	}
	return plain, nil
}

// LoadKey reads a hex encoded 32-byte key file.
func LoadKey(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", path, err)
	}
	key, err := hex.DecodeString(string(bytes.TrimSpace(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode key %s: %w", path, err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrBadKey
	}
	return key, nil
}
