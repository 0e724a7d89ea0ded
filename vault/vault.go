// Package vault encrypts provider credentials at rest.
//
// Each value is sealed with AES-256-GCM under a key derived by scrypt from
// the master secret and a random per-call salt. The stored blob is
// base64(salt || iv || tag || ciphertext).
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	saltSize = 64
	ivSize   = 16
	tagSize  = 16
	keySize  = 32

	additionalData = "QuickKub Payment Gateway"
)

// SensitiveFields names the credential fields that are encrypted one by one.
// Every other field of a configuration object stays in clear.
var SensitiveFields = []string{"apiKey", "secretKey", "privateKey", "password"}

var (
	ErrMissingMasterKey = errors.New("vault: ENCRYPTION_MASTER_KEY is not configured")
	ErrDecryptionFailed = errors.New("vault: decryption failed")
)

// Vault seals and opens credential values.
type Vault struct {
	masterKey []byte
	n, r, p   int
}

// Option customises a Vault.
type Option func(*Vault)

// WithScryptParams overrides the scrypt cost parameters.
func WithScryptParams(n, r, p int) Option {
	return func(v *Vault) {
		v.n, v.r, v.p = n, r, p
	}
}

// New returns a Vault for masterKey. An empty key is a configuration error.
func New(masterKey string, opts ...Option) (*Vault, error) {
	if masterKey == "" {
		return nil, ErrMissingMasterKey
	}
	v := &Vault{
		masterKey: []byte(masterKey),
		n:         16384,
		r:         8,
		p:         1,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func (v *Vault) deriveKey(salt []byte) ([]byte, error) {
	return scrypt.Key(v.masterKey, salt, v.n, v.r, v.p, keySize)
}

func (v *Vault) aead(salt []byte) (cipher.AEAD, error) {
	key, err := v.deriveKey(salt)
	if err != nil {
		return nil, fmt.Errorf("vault: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: create cipher: %w", err)
	}
	return cipher.NewGCMWithNonceSize(block, ivSize)
}

// Encrypt seals plaintext and returns the base64 blob.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	header := make([]byte, saltSize+ivSize)
	if _, err := rand.Read(header); err != nil {
		return "", fmt.Errorf("vault: read random: %w", err)
	}
	salt, iv := header[:saltSize], header[saltSize:]

	gcm, err := v.aead(salt)
	if err != nil {
		return "", err
	}

	// Seal appends the tag; the blob keeps it ahead of the ciphertext.
	sealed := gcm.Seal(nil, iv, []byte(plaintext), []byte(additionalData))
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	blob := make([]byte, 0, len(header)+len(sealed))
	blob = append(blob, header...)
	blob = append(blob, tag...)
	blob = append(blob, ciphertext...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a blob produced by Encrypt. Any malformed or tampered input
// yields ErrDecryptionFailed.
func (v *Vault) Decrypt(encoded string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(blob) < saltSize+ivSize+tagSize {
		return "", ErrDecryptionFailed
	}

	salt := blob[:saltSize]
	iv := blob[saltSize : saltSize+ivSize]
	tag := blob[saltSize+ivSize : saltSize+ivSize+tagSize]
	ciphertext := blob[saltSize+ivSize+tagSize:]

	gcm, err := v.aead(salt)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, []byte(additionalData))
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// EncryptFields marshals config to a JSON object and encrypts every non-empty
// sensitive field in place.
func (v *Vault) EncryptFields(config any) (json.RawMessage, error) {
	fields, err := toObject(config)
	if err != nil {
		return nil, err
	}
	for _, name := range SensitiveFields {
		value, ok := fields[name].(string)
		if !ok || value == "" {
			continue
		}
		sealed, err := v.Encrypt(value)
		if err != nil {
			return nil, fmt.Errorf("vault: encrypt %s: %w", name, err)
		}
		fields[name] = sealed
	}
	return json.Marshal(fields)
}

// DecryptFields reverses EncryptFields and unmarshals the result into out.
func (v *Vault) DecryptFields(blob json.RawMessage, out any) error {
	var fields map[string]any
	if err := json.Unmarshal(blob, &fields); err != nil {
		return fmt.Errorf("%w: config is not a JSON object", ErrDecryptionFailed)
	}
	for _, name := range SensitiveFields {
		value, ok := fields[name].(string)
		if !ok || value == "" {
			continue
		}
		plain, err := v.Decrypt(value)
		if err != nil {
			return fmt.Errorf("%w: field %s", err, name)
		}
		fields[name] = plain
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func toObject(config any) (map[string]any, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("vault: marshal config: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("vault: config must be a JSON object: %w", err)
	}
	return fields, nil
}
