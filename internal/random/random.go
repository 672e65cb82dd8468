// Package random provides secure random tokens.
package random

import (
	"crypto/rand"
	"encoding/base64"
)

// Bytes returns securely generated random bytes.
func Bytes(length int) ([]byte, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Token returns a securely generated opaque token, URL safe and
// without padding. Length is the number of underlying random bytes,
// not the length of the encoded string.
func Token(length int) (string, error) {
	b, err := Bytes(length)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
