package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration

	_ "golang.org/x/image/bmp" // BMP decoder registration
)

// MaxTextureSide is the largest width or height a texture may declare.
const MaxTextureSide = 4096

// ErrTooLarge is returned for textures whose header exceeds MaxTextureSide.
var ErrTooLarge = errors.New("asset: texture too large")

func checkSize(width, height int) error {
	if width > MaxTextureSide || height > MaxTextureSide {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrTooLarge, width, height, MaxTextureSide)
	}
	return nil
}

// Decode decodes a texture payload. PNG, JPEG and BMP are recognised by their
// magic bytes; anything else is tried as TGA, which has no signature.
// Dimensions are checked from the header before any pixels are allocated.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("asset: empty texture payload")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		if err := checkSize(cfg.Width, cfg.Height); err != nil {
			return nil, fmt.Errorf("decoding %s texture: %w", format, err)
		}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if !errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("decoding %s texture: %w", format, err)
	}
	img, tgaErr := DecodeTGA(data)
	if tgaErr != nil {
		return nil, fmt.Errorf("unrecognised texture format: %w", tgaErr)
	}
	return img, nil
}
