package paste

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for paste passwords.
const BcryptCost = 10

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func codec() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(4*MaxContentSize))
	})
	return encoder, decoder, codecErr
}

// EncodeContent returns the stored form of content. Content larger than
// CompressionThreshold bytes is zstd compressed.
func EncodeContent(content string) ([]byte, bool, error) {
	if len(content) <= CompressionThreshold {
		return []byte(content), false, nil
	}
	enc, _, err := codec()
	if err != nil {
		return nil, false, err
	}
	return enc.EncodeAll([]byte(content), nil), true, nil
}

// DecodeContent reverses EncodeContent.
func DecodeContent(stored []byte, compressed bool) (string, error) {
	if !compressed {
		return string(stored), nil
	}
	_, dec, err := codec()
	if err != nil {
		return "", err
	}
	out, err := dec.DecodeAll(stored, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecompress, err)
	}
	return string(out), nil
}

// HashPassword hashes a paste password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches hash. Malformed hashes
// are reported as errors, mismatches are not.
func ComparePassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

var jsonStyle = &pretty.Options{Width: 80, Indent: "  "}

// FormatContent pretty-prints JSON pastes with two-space indentation.
// Other languages and JSON that does not parse are returned unchanged.
func FormatContent(content, language string) string {
	if language != "json" || !gjson.Valid(content) {
		return content
	}
	return string(pretty.PrettyOptions([]byte(content), jsonStyle))
}
