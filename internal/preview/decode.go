package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/kozaktomas/face-compare/internal/constants"
	"github.com/kozaktomas/face-compare/internal/intake"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrImageTooLarge is returned for images with too many pixels to preview.
var ErrImageTooLarge = errors.New("image dimensions too large")

// Decoder turns an image file into a displayable representation.
type Decoder interface {
	Decode(ctx context.Context, f *intake.ImageFile) (string, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context, f *intake.ImageFile) (string, error)

// Decode calls fn.
func (fn DecoderFunc) Decode(ctx context.Context, f *intake.ImageFile) (string, error) {
	return fn(ctx, f)
}

// ThumbnailDecoder renders a JPEG data URI no larger than MaxSize on either side.
type ThumbnailDecoder struct {
	MaxSize int
}

// NewThumbnailDecoder creates a decoder, falling back to the default size for non-positive values.
func NewThumbnailDecoder(maxSize int) *ThumbnailDecoder {
	if maxSize <= 0 {
		maxSize = constants.DefaultPreviewSize
	}
	return &ThumbnailDecoder{MaxSize: maxSize}
}

// Decode implements Decoder.
func (d *ThumbnailDecoder) Decode(ctx context.Context, f *intake.ImageFile) (string, error) {
	if len(f.Data) == 0 {
		return "", errors.New("no image data")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := resizeImage(f.Data, d.MaxSize)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// resizeImage resizes an image to fit within maxSize (width or height) while keeping aspect ratio.
// Images whose header declares more than MaxPreviewPixels are rejected before decoding.
func resizeImage(data []byte, maxSize int) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > constants.MaxPreviewPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var dst image.Image = img
	if width > maxSize || height > maxSize {
		var newWidth, newHeight int
		if width > height {
			newWidth = maxSize
			newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
		} else {
			newHeight = maxSize
			newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
		}

		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		dst = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: constants.PreviewJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
