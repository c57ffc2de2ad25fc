package storage

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/argon2"
)

// EncryptionMagicHeader prefixes encrypted snapshot files.
const EncryptionMagicHeader = "BSTRENC1"

const (
	saltLength = 16
	keyLength  = 32 // AES-256
)

// EncryptionConfig holds the passphrase and Argon2id cost parameters.
type EncryptionConfig struct {
	Password string

	Argon2Time    uint32
	Argon2Memory  uint32 // KiB
	Argon2Threads uint8
}

// DefaultEncryptionConfig uses the RFC 9106 second recommended Argon2id profile.
func DefaultEncryptionConfig(password string) *EncryptionConfig {
	return &EncryptionConfig{
		Password:      password,
		Argon2Time:    3,
		Argon2Memory:  64 * 1024,
		Argon2Threads: 4,
	}
}

func (c *EncryptionConfig) gcm(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(c.Password), salt, c.Argon2Time, c.Argon2Memory, c.Argon2Threads, keyLength)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

// EncryptData seals plaintext as salt || nonce || ciphertext.
func EncryptData(plaintext []byte, config *EncryptionConfig) ([]byte, error) {
	if config == nil || config.Password == "" {
		return nil, errors.New("encryption config with password required")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	aead, err := config.gcm(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// DecryptData opens data produced by EncryptData.
func DecryptData(sealed []byte, config *EncryptionConfig) ([]byte, error) {
	if config == nil || config.Password == "" {
		return nil, errors.New("encryption config with password required")
	}
	if len(sealed) < saltLength {
		return nil, errors.New("encrypted data too short")
	}

	aead, err := config.gcm(sealed[:saltLength])
	if err != nil {
		return nil, err
	}
	rest := sealed[saltLength:]
	if len(rest) < aead.NonceSize()+aead.Overhead() {
		return nil, errors.New("encrypted data too short")
	}

	nonce, ciphertext := rest[:aead.NonceSize()], rest[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong password or corrupted data): %w", err)
	}
	return plaintext, nil
}

// EncryptFile writes the magic header and the sealed contents of sourcePath to destPath.
func EncryptFile(sourcePath, destPath string, config *EncryptionConfig) error {
	plaintext, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}
	sealed, err := EncryptData(plaintext, config)
	if err != nil {
		return fmt.Errorf("encryption failed: %w", err)
	}
	data := append([]byte(EncryptionMagicHeader), sealed...)
	if err := os.WriteFile(destPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write encrypted file: %w", err)
	}
	return nil
}

// DecryptFile reverses EncryptFile.
func DecryptFile(sourcePath, destPath string, config *EncryptionConfig) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read encrypted file: %w", err)
	}
	if !bytes.HasPrefix(data, []byte(EncryptionMagicHeader)) {
		return errors.New("file is not encrypted or has wrong format")
	}
	plaintext, err := DecryptData(data[len(EncryptionMagicHeader):], config)
	if err != nil {
		return fmt.Errorf("decryption failed: %w", err)
	}
	if err := os.WriteFile(destPath, plaintext, 0o600); err != nil {
		return fmt.Errorf("failed to write decrypted file: %w", err)
	}
	return nil
}

// IsEncrypted reports whether the file starts with the magic header.
func IsEncrypted(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, len(EncryptionMagicHeader))
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return n == len(EncryptionMagicHeader) && string(header) == EncryptionMagicHeader, nil
}
