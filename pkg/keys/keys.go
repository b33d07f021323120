// Package keys loads and converts the signer key formats used by the Solana
// tooling: the CLI wallet file (a JSON array of the 64 keypair bytes) and a
// base58 encoded private key.
package keys

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrInvalidKey    = errors.New("invalid private key")
	ErrInvalidWallet = errors.New("invalid wallet byte array")
)

// Generate returns a new random signer.
func Generate() (ed25519.PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "error generating private key")
	}
	return key, nil
}

// FromWalletBytes validates 64 raw keypair bytes: a 32 byte seed followed by
// the public key derived from it.
func FromWalletBytes(b []byte) (ed25519.PrivateKey, error) {
	if len(b) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrInvalidKey, "expected %d bytes, got %d", ed25519.PrivateKeySize, len(b))
	}

	key := ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
	if !bytes.Equal(key[ed25519.SeedSize:], b[ed25519.SeedSize:]) {
		return nil, errors.Wrap(ErrInvalidKey, "public key does not match seed")
	}

	return key, nil
}

// FromBase58 parses a base58 encoded 64 byte keypair.
func FromBase58(s string) (ed25519.PrivateKey, error) {
	b, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidKey, "error decoding string as base58: %v", err)
	}
	return FromWalletBytes(b)
}

func ToBase58(key ed25519.PrivateKey) string {
	return base58.Encode(key)
}

// ParseWallet parses a wallet byte array such as "[34, 12, ...]".
func ParseWallet(text string) ([]byte, error) {
	var values []int
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &values); err != nil {
		return nil, errors.Wrap(ErrInvalidWallet, err.Error())
	}

	b := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, errors.Wrapf(ErrInvalidWallet, "value %d at index %d is not a byte", v, i)
		}
		b[i] = byte(v)
	}

	return b, nil
}

// FormatWallet renders bytes in the wallet file format.
func FormatWallet(b []byte) string {
	values := make([]int, len(b))
	for i, v := range b {
		values[i] = int(v)
	}

	// Marshalling a []int cannot fail.
	encoded, _ := json.Marshal(values)
	return string(encoded)
}

// WalletBytesToBase58 converts a wallet byte array to a base58 private key.
func WalletBytesToBase58(text string) (string, error) {
	b, err := ParseWallet(text)
	if err != nil {
		return "", err
	}

	key, err := FromWalletBytes(b)
	if err != nil {
		return "", err
	}

	return ToBase58(key), nil
}

// Base58ToWalletBytes converts a base58 private key to a wallet byte array.
func Base58ToWalletBytes(s string) (string, error) {
	key, err := FromBase58(s)
	if err != nil {
		return "", err
	}

	return FormatWallet(key), nil
}

func LoadWalletFile(path string) (ed25519.PrivateKey, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read wallet file %s", path)
	}

	b, err := ParseWallet(string(contents))
	if err != nil {
		return nil, errors.Wrapf(err, "wallet file %s", path)
	}

	key, err := FromWalletBytes(b)
	if err != nil {
		return nil, errors.Wrapf(err, "wallet file %s", path)
	}

	return key, nil
}

// SaveWalletFile writes key in the wallet file format, readable only by the
// owner. Existing files are never overwritten.
func SaveWalletFile(path string, key ed25519.PrivateKey) error {
	if len(key) != ed25519.PrivateKeySize {
		return errors.Wrapf(ErrInvalidKey, "expected %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return errors.Wrapf(err, "failed to create wallet file %s", path)
	}

	if _, err := f.WriteString(FormatWallet(key)); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write wallet file %s", path)
	}

	return f.Close()
}

func PublicKey(key ed25519.PrivateKey) ed25519.PublicKey {
	return key.Public().(ed25519.PublicKey)
}
