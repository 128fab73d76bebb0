package paste

import (
	"crypto/rand"
	"fmt"
)

const (
	idLength   = 8
	idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"
)

// NewID returns 8 random URL-safe characters followed by the language's
// file extension, e.g. "V1StGXR8.py".
func NewID(language string) (string, error) {
	id, err := randomID()
	if err != nil {
		return "", err
	}
	return id + "." + Extension(language), nil
}

func randomID() (string, error) {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate paste id: %w", err)
	}
	// 64 symbols: the low six bits map uniformly.
	for i, b := range buf {
		buf[i] = idAlphabet[b&63]
	}
	return string(buf), nil
}

// BaseID strips the extension from id.
func BaseID(id string) string {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '.' {
			return id[:i]
		}
	}
	return id
}
