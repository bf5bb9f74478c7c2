package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand/v2"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/nfnt/resize"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrImageTooLarge     = errors.New("image dimensions too large")
)

// MaxPixels caps width*height of any image decoded in full.
const MaxPixels = 40_000_000

// DecodeBounded decodes a JPEG or PNG, checking the dimensions declared in
// its header against MaxPixels before any pixel data is allocated.
func DecodeBounded(data []byte) (image.Image, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	if format != "jpeg" && format != "png" {
		return nil, format, ErrUnsupportedFormat
	}
	if tooLarge(cfg) {
		return nil, format, ErrImageTooLarge
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, err
	}
	return img, format, nil
}

func tooLarge(cfg image.Config) bool {
	return int64(cfg.Width)*int64(cfg.Height) > MaxPixels
}

// ObjectKey names an upload uploads/<unix millis>-<6 base36 chars>.<ext>.
func ObjectKey(filename string, now time.Time, intn func(int) int) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" || strings.ContainsAny(ext, "/\\") {
		ext = "jpg"
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = digits[intn(len(digits))]
	}
	return "uploads/" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix) + "." + ext
}

type Uploader struct {
	store    ObjectStore
	maxWidth uint
	now      func() time.Time
	intn     func(int) int
}

func NewUploader(store ObjectStore, maxWidth int) *Uploader {
	if maxWidth < 0 {
		maxWidth = 0
	}
	return &Uploader{store: store, maxWidth: uint(maxWidth), now: time.Now, intn: rand.IntN}
}

// Upload stores one photo and returns its public URL. JPEG and PNG images
// wider than the configured width are scaled down first; anything else is
// stored as sent. Images declaring more than MaxPixels are refused.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil && tooLarge(cfg) {
		return "", ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	if u.maxWidth > 0 {
		if shrunk, ok := u.shrink(data); ok {
			data = shrunk
		}
	}

	key := ObjectKey(filename, u.now(), u.intn)
	if err := u.store.Put(ctx, key, contentType, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return u.store.PublicURL(key), nil
}

func (u *Uploader) shrink(data []byte) ([]byte, bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || uint(cfg.Width) <= u.maxWidth {
		return nil, false
	}
	img, format, err := DecodeBounded(data)
	if err != nil {
		return nil, false
	}

	var buf bytes.Buffer
	if err := Encode(&buf, resize.Resize(u.maxWidth, 0, img, resize.Lanczos3), format); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// ResizeToHeight scales img to height pixels keeping its aspect ratio.
func ResizeToHeight(img image.Image, height uint) image.Image {
	b := img.Bounds()
	aspectRatio := float64(b.Dx()) / float64(b.Dy())
	width := uint(float64(height) * aspectRatio)
	return resize.Resize(width, height, img, resize.Lanczos3)
}

func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 85})
	case "png":
		return png.Encode(w, img)
	default:
		return ErrUnsupportedFormat
	}
}
