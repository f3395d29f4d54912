package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// TokenSize is the amount of random bytes in an API token secret.
const TokenSize = 32

// RandomData returns a slice of the specified size containing random data.
func RandomData(size int) ([]byte, error) {
	if size < 0 {
		return nil, errors.New("size cannot be negative")
	}

	data := make([]byte, size)
	_, err := rand.Read(data)
	if err != nil {
		return nil, fmt.Errorf("failed generating random data: %w", err)
	}

	return data, nil
}

// NewToken generates a new random API token. It returns the token encoded in
// base58, which is shown to the user once, and its hash, which is stored.
func NewToken() (token string, hash []byte, err error) {
	data, err := RandomData(TokenSize)
	if err != nil {
		return "", nil, err
	}

	sum := blake2b.Sum256(data)

	return base58.Encode(data), sum[:], nil
}

// HashToken decodes a base58 encoded API token and returns its hash.
func HashToken(token string) ([]byte, error) {
	data, err := base58.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("failed decoding token: %w", err)
	}
	if len(data) != TokenSize {
		return nil, fmt.Errorf("invalid token length: %d", len(data))
	}

	sum := blake2b.Sum256(data)

	return sum[:], nil
}

// EqualHash reports whether two token hashes are equal, in constant time.
func EqualHash(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
