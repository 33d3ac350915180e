// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package secure provides passphrase-based encryption for quiz results
// at rest.
//
// Values are sealed with:
//   - AES-256-GCM authenticated encryption
//   - PBKDF2-SHA-256 key derivation with a per-value random salt
//
// Sealed values carry the ENC: prefix so callers can tell sealed from
// plain content without attempting decryption.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// SealedPrefix marks a value as sealed (format: ENC:base64(salt|nonce|ciphertext|tag))
const SealedPrefix = "ENC:"

// NonceSize is the size of the nonce/IV for AES-GCM (12 bytes / 96 bits)
const NonceSize = 12

// KeySize is the size of the AES-256 key (32 bytes / 256 bits)
const KeySize = 32

// SaltSize is the size of the salt for key derivation (32 bytes)
const SaltSize = 32

// PBKDF2Iterations is the number of iterations for PBKDF2 key derivation.
// OWASP 2023 recommends 600,000+ for PBKDF2-SHA-256 to provide adequate
// resistance against brute-force attacks with modern hardware.
const PBKDF2Iterations = 600000

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoPassphrase indicates the sealer was created without a passphrase
	ErrNoPassphrase = errors.New("sealing not configured: no passphrase set")
	// ErrInvalidSealedValue indicates the sealed value format is invalid
	ErrInvalidSealedValue = errors.New("invalid sealed value format")
	// ErrOpenFailed indicates decryption failed (wrong passphrase or tampered data)
	ErrOpenFailed = errors.New("open failed: authentication tag mismatch")
)

// =============================================================================
// HELPERS
// =============================================================================

// ZeroBytes zeros sensitive byte slices to limit key material exposure
// in memory.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// IsSealed reports whether the value carries the sealed marker.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, SealedPrefix)
}

// deriveKey derives an AES-256 key from the passphrase and salt using
// PBKDF2-SHA-256 per NIST SP 800-132.
func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, PBKDF2Iterations, KeySize, sha256.New)
}

// =============================================================================
// SEALER
// =============================================================================

// Sealer encrypts and decrypts values with a passphrase-derived key.
// Each sealed value uses a fresh random salt and nonce, so sealing the
// same plaintext twice yields different ciphertexts.
type Sealer struct {
	passphrase string
}

// New creates a Sealer for the given passphrase. An empty passphrase
// yields a Sealer whose operations fail with ErrNoPassphrase.
func New(passphrase string) *Sealer {
	return &Sealer{passphrase: passphrase}
}

// Configured reports whether the sealer holds a passphrase.
func (s *Sealer) Configured() bool {
	return s.passphrase != ""
}

// Seal encrypts plaintext and returns the sealed wire form:
// ENC:base64(salt|nonce|ciphertext|tag).
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	if s.passphrase == "" {
		return "", ErrNoPassphrase
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveKey(s.passphrase, salt)
	defer ZeroBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, 0, SaltSize+NonceSize+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)

	return SealedPrefix + base64.StdEncoding.EncodeToString(blob), nil
}

// Open decrypts a sealed value produced by Seal.
func (s *Sealer) Open(value string) ([]byte, error) {
	if s.passphrase == "" {
		return nil, ErrNoPassphrase
	}

	if !IsSealed(value) {
		return nil, ErrInvalidSealedValue
	}

	blob, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, SealedPrefix))
	if err != nil {
		return nil, ErrInvalidSealedValue
	}

	if len(blob) < SaltSize+NonceSize {
		return nil, ErrInvalidSealedValue
	}

	salt := blob[:SaltSize]
	nonce := blob[SaltSize : SaltSize+NonceSize]
	ciphertext := blob[SaltSize+NonceSize:]

	key := deriveKey(s.passphrase, salt)
	defer ZeroBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrOpenFailed
	}

	return plaintext, nil
}

// newGCM builds the AES-GCM AEAD for the given key.
func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}

	return gcm, nil
}
