package kv

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
)

// NewAEAD derives an AES-256-GCM cipher from arbitrary key material, such
// as the contents of a device key file.
func NewAEAD(keyMaterial []byte) (cipher.AEAD, error) {
	if len(keyMaterial) == 0 {
		return nil, errors.New("empty key material")
	}
	key := sha256.Sum256(keyMaterial)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return aead, nil
}

// SealedStore encrypts every value before handing it to the wrapped store.
// The stored form is nonce || ciphertext; the key is bound as additional
// data so a value cannot be replayed under another key.
type SealedStore struct {
	inner Store
	aead  cipher.AEAD
}

// NewSealedStore wraps inner with aead.
func NewSealedStore(inner Store, aead cipher.AEAD) *SealedStore {
	return &SealedStore{inner: inner, aead: aead}
}

func (s *SealedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	ns := s.aead.NonceSize()
	if len(sealed) < ns {
		return nil, storageErr("get", key, errors.New("sealed value too short"))
	}
	plain, err := s.aead.Open(nil, sealed[:ns], sealed[ns:], []byte(key))
	if err != nil {
		return nil, storageErr("get", key, fmt.Errorf("decrypt: %w", err))
	}
	return plain, nil
}

func (s *SealedStore) Set(ctx context.Context, key string, value []byte) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return storageErr("set", key, fmt.Errorf("generate nonce: %w", err))
	}
	return s.inner.Set(ctx, key, s.aead.Seal(nonce, nonce, value, []byte(key)))
}

func (s *SealedStore) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}

func (s *SealedStore) Close() error { return s.inner.Close() }
