package qrcode

import (
	"encoding/base64"
	"errors"

	"github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels used when size is not positive.
const DefaultSize = 256

var (
	ErrEmptyContent = errors.New("qrcode: content is empty")
	ErrGenerate     = errors.New("qrcode: failed to generate")
)

// Generate encodes content as a PNG QR code with medium error correction.
func Generate(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrGenerate, err)
	}
	return png, nil
}

// GenerateBase64Image returns the QR code as a data URI for <img src>.
func GenerateBase64Image(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
