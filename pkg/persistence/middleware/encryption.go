package middleware

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/talks/pkg/ports"
)

// Envelope markers around the base64 ciphertext. The envelope is itself
// a well-formed XML element, so stores that expect XML still get some.
var (
	envelopeOpen  = []byte("<encrypted>")
	envelopeClose = []byte("</encrypted>")
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// ParseKey decodes a base64 AES-256 key.
func ParseKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

type encryptionMiddleware struct {
	ports.TalkStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts talk bytes using AES-GCM.
// Delete and List pass through; names are not encrypted.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.TalkStore) ports.TalkStore {
		return &encryptionMiddleware{
			TalkStore: next,
			config:    config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, name string, data []byte) error {
	ciphertext, err := encrypt(data, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt talk: %w", err)
	}

	envelope := make([]byte, 0, len(envelopeOpen)+base64.StdEncoding.EncodedLen(len(ciphertext))+len(envelopeClose))
	envelope = append(envelope, envelopeOpen...)
	envelope = base64.StdEncoding.AppendEncode(envelope, ciphertext)
	envelope = append(envelope, envelopeClose...)

	return m.TalkStore.Save(ctx, name, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, name string) (ports.Record, error) {
	rec, err := m.TalkStore.Load(ctx, name)
	if err != nil {
		return ports.Record{}, err
	}

	body, ok := bytes.CutPrefix(rec.Data, envelopeOpen)
	if ok {
		body, ok = bytes.CutSuffix(body, envelopeClose)
	}
	if !ok {
		// Plain talks are refused rather than served unencrypted.
		return ports.Record{}, errors.New("talk is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(string(body))
	if err != nil {
		return ports.Record{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	// Decrypt (Try Active, then Fallback)
	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return ports.Record{}, fmt.Errorf("failed to decrypt talk: %w", err)
	}

	return ports.Record{Data: plainText, Updated: rec.Updated}, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{activeKey}, fallbackKeys...) {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
