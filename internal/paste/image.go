package paste

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"slices"
	"strconv"
	"strings"
)

// JPEGQuality is used when re-encoding to JPEG.
const JPEGQuality = 90

// Output formats for Download.
const (
	FormatOriginal = "original"
	FormatJPG      = "jpg"
	FormatPNG      = "png"
	FormatGIF      = "gif"
)

// Dimensions assumed when a stored image lacks them.
const (
	defaultImageWidth  = 800
	defaultImageHeight = 600
)

var compressionRatios = map[string]float64{
	"jpeg": 0.25,
	"jpg":  0.25,
	"png":  0.8,
	"gif":  0.3,
}

const defaultCompressionRatio = 0.3

// Upload is a decoded image upload.
type Upload struct {
	Data     []byte
	Format   string // jpeg, png or gif as reported by the decoder
	MimeType string
	Width    int
	Height   int
}

// Extension returns the file extension for the upload's format.
func (u Upload) Extension() string {
	return formatExtension(u.Format)
}

// DecodeUpload decodes a base64 image, optionally wrapped in a data URL, and
// reads its header.
func DecodeUpload(encoded string) (Upload, error) {
	if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i > 0 {
		encoded = encoded[i+1:]
	}
	encoded = strings.TrimSpace(encoded)

	if base64.StdEncoding.DecodedLen(len(encoded)) > MaxImageSize+3 {
		return Upload{}, fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Upload{}, fmt.Errorf("image is not valid base64: %w", err)
	}
	if len(data) > MaxImageSize {
		return Upload{}, fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Upload{}, fmt.Errorf("unsupported image: %w", err)
	}

	return Upload{
		Data:     data,
		Format:   format,
		MimeType: "image/" + format,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}

// NormalizeFormat maps a requested download format to one of the Format
// constants. Unknown values become FormatJPG.
func NormalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatOriginal:
		return FormatOriginal
	case FormatPNG:
		return FormatPNG
	case FormatGIF:
		return FormatGIF
	default:
		return FormatJPG
	}
}

// Transcode re-encodes data into format (jpg, png or gif) and returns the
// encoded bytes with their MIME type.
func Transcode(data []byte, format string) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	mime := "image/jpeg"
	switch format {
	case FormatPNG:
		mime = "image/png"
		err = png.Encode(&buf, img)
	case FormatGIF:
		mime = "image/gif"
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), mime, nil
}

// Format is an offered download format with its estimated size.
type Format struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      string `json:"size"`
	Extension string `json:"extension"`

	bytes int64
}

// EstimateFormats lists the download formats for p: the original first,
// the others by ascending estimated size.
func EstimateFormats(p *Paste) []Format {
	original := p.OriginalFormat
	if original == "" {
		original = "jpeg"
	}
	width, height := p.ImageWidth, p.ImageHeight
	if width <= 0 {
		width = defaultImageWidth
	}
	if height <= 0 {
		height = defaultImageHeight
	}
	pixels := float64(width * height)

	estimate := func(format string) int64 {
		ratio, ok := compressionRatios[format]
		if !ok {
			ratio = defaultCompressionRatio
		}
		return int64(math.Round(pixels * ratio))
	}

	originalSize := p.ImageSize
	if originalSize <= 0 {
		originalSize = estimate(original)
	}

	formats := []Format{
		{ID: FormatJPG, Name: "JPEG", Extension: "jpg", bytes: estimate(FormatJPG)},
		{ID: FormatPNG, Name: "PNG", Extension: "png", bytes: estimate(FormatPNG)},
		{ID: FormatGIF, Name: "GIF", Extension: "gif", bytes: estimate(FormatGIF)},
	}
	slices.SortStableFunc(formats, func(a, b Format) int {
		switch {
		case a.bytes < b.bytes:
			return -1
		case a.bytes > b.bytes:
			return 1
		}
		return 0
	})

	out := make([]Format, 0, len(formats)+1)
	out = append(out, Format{
		ID:        FormatOriginal,
		Name:      "Original (" + strings.ToUpper(original) + ")",
		Extension: original,
		bytes:     originalSize,
	})
	out = append(out, formats...)
	for i := range out {
		out[i].Size = FormatBytes(out[i].bytes)
	}
	return out
}

// FormatBytes renders n with two decimals in Bytes, KB, MB, GB or TB.
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB", "TB"}
	i := min(int(math.Floor(math.Log(float64(n))/math.Log(1024))), len(units)-1)
	v := float64(n) / math.Pow(1024, float64(i))
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + units[i]
}

func formatExtension(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg", "":
		return "jpg"
	default:
		return strings.ToLower(format)
	}
}
