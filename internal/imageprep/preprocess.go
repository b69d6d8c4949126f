// Package imageprep downsamples and re-encodes user selfies before they are
// sent to the vision provider.
package imageprep

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when the input is not a decodable raster image.
var ErrDecode = errors.New("imageprep: image could not be decoded")

// ErrEmpty is returned for empty input.
var ErrEmpty = errors.New("imageprep: empty image")

// MaxPixels caps width*height of an input image. The header is checked
// before the pixel data is decoded.
const MaxPixels = 40_000_000

// Options control the output size and compression.
type Options struct {
	// MaxDimension caps the longer side in pixels.
	MaxDimension int
	// Quality is the JPEG quality factor, 1..100.
	Quality int
}

// DefaultOptions returns the options used by the Mini App.
func DefaultOptions() Options {
	return Options{MaxDimension: 512, Quality: 50}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MaxDimension <= 0 {
		o.MaxDimension = d.MaxDimension
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = d.Quality
	}
	return o
}

// Output is a compact JPEG ready for transmission.
type Output struct {
	DataURI string
	JPEG    []byte
	Width   int
	Height  int
	// SourceFormat is the format name reported by the decoder.
	SourceFormat string
	// Image is the downscaled image, kept for quality inspection.
	Image image.Image
}

// Preprocess decodes data, scales the longer side down to
// opts.MaxDimension preserving aspect ratio, and re-encodes it as JPEG.
func Preprocess(data []byte, opts Options) (*Output, error) {
	opts = opts.normalized()

	img, format, err := Decode(data)
	if err != nil {
		return nil, err
	}
	scaled := Resize(img, opts.MaxDimension)
	out, err := EncodeJPEG(scaled, opts.Quality)
	if err != nil {
		return nil, err
	}
	b := scaled.Bounds()
	return &Output{
		DataURI:      EncodeDataURI("image/jpeg", out),
		JPEG:         out,
		Width:        b.Dx(),
		Height:       b.Dy(),
		SourceFormat: format,
		Image:        scaled,
	}, nil
}

// Decode decodes any registered image format (JPEG, PNG, GIF, WebP).
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("%w: zero-sized image", ErrDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, MaxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", fmt.Errorf("%w: zero-sized image", ErrDecode)
	}
	return img, format, nil
}

// ScaledSize returns the size of a w×h image after fitting its longer side
// into maxDim. Images that already fit are left unchanged; it never
// upscales.
func ScaledSize(w, h, maxDim int) (int, int) {
	if w <= 0 || h <= 0 || maxDim <= 0 {
		return w, h
	}
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		nh := int(math.Round(float64(h) * float64(maxDim) / float64(w)))
		return maxDim, max(nh, 1)
	}
	nw := int(math.Round(float64(w) * float64(maxDim) / float64(h)))
	return max(nw, 1), maxDim
}

// Resize fits img into a maxDim×maxDim box. Transparent areas are flattened
// onto white since JPEG has no alpha channel.
func Resize(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := ScaledSize(b.Dx(), b.Dy(), maxDim)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// EncodeJPEG encodes img at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeDataURI builds a base64 data URI.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// EnsureDataURI prefixes raw base64 with a JPEG data URI header. Values that
// are already data URIs are returned as is.
func EnsureDataURI(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		return s
	}
	return "data:image/jpeg;base64," + s
}

// DecodeDataURI accepts a base64 data URI or raw base64 and returns the
// payload and its declared MIME type (image/jpeg for raw base64).
func DecodeDataURI(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", ErrEmpty
	}
	mimeType := "image/jpeg"
	payload := s
	if strings.HasPrefix(s, "data:") {
		header, rest, ok := strings.Cut(s, ",")
		if !ok {
			return nil, "", fmt.Errorf("%w: malformed data URI", ErrDecode)
		}
		meta := strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("%w: data URI is not base64", ErrDecode)
		}
		if m := strings.TrimSuffix(meta, ";base64"); m != "" {
			mimeType = m
		}
		payload = rest
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients strip padding or use the URL alphabet.
		if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
			if data, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
				return nil, "", fmt.Errorf("%w: invalid base64: %v", ErrDecode, err)
			}
		}
	}
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	return data, mimeType, nil
}
