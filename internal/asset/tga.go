package asset

import (
	"fmt"
	"image"
	"image/color"
)

// TGA image types handled by DecodeTGA.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

// DecodeTGA decodes an uncompressed or RLE TGA image in 8-bit gray,
// 24-bit BGR or 32-bit BGRA. Color-mapped files are rejected.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("TGA has empty dimensions %dx%d", width, height)
	}

	var gray, rle bool
	switch imageType {
	case tgaTrueColor:
	case tgaTrueColorRLE:
		rle = true
	case tgaGray:
		gray = true
	case tgaGrayRLE:
		gray, rle = true, true
	default:
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}
	if gray && bpp != 8 || !gray && bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d for type %d", bpp, imageType)
	}

	if err := checkSize(width, height); err != nil {
		return nil, err
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}

	// An RLE packet covers at most 128 pixels with one header byte and at
	// least one pixel value.
	pixels := width * height
	need := pixels * (bpp / 8)
	if rle {
		need = (pixels + 127) / 128 * (1 + bpp/8)
	}
	if len(data)-offset < need {
		return nil, fmt.Errorf("TGA data truncated: %d bytes for %dx%d", len(data)-offset, width, height)
	}

	r := &tgaReader{
		src: data[offset:],
		bpp: bpp / 8,
		rle: rle,
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		destY := y
		if !topToBottom {
			destY = height - 1 - y
		}
		for x := 0; x < width; x++ {
			px, err := r.next()
			if err != nil {
				return nil, fmt.Errorf("TGA pixel (%d,%d): %w", x, y, err)
			}
			img.SetRGBA(x, destY, px)
		}
	}
	return img, nil
}

// tgaReader yields pixels in file order, expanding RLE packets.
type tgaReader struct {
	src []byte
	pos int
	bpp int
	rle bool

	run    int  // pixels left in the current packet
	repeat bool // current packet repeats one pixel
	last   color.RGBA
}

func (r *tgaReader) next() (color.RGBA, error) {
	if !r.rle {
		return r.read()
	}
	if r.run == 0 {
		if r.pos >= len(r.src) {
			return color.RGBA{}, fmt.Errorf("missing RLE packet header")
		}
		header := r.src[r.pos]
		r.pos++
		r.run = int(header&0x7F) + 1
		r.repeat = header&0x80 != 0
		if r.repeat {
			px, err := r.read()
			if err != nil {
				return px, err
			}
			r.last = px
		}
	}
	r.run--
	if r.repeat {
		return r.last, nil
	}
	return r.read()
}

func (r *tgaReader) read() (color.RGBA, error) {
	if r.pos+r.bpp > len(r.src) {
		return color.RGBA{}, fmt.Errorf("pixel data truncated")
	}
	p := r.src[r.pos : r.pos+r.bpp]
	r.pos += r.bpp
	switch r.bpp {
	case 1:
		return color.RGBA{R: p[0], G: p[0], B: p[0], A: 255}, nil
	case 3:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}, nil
	default:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: p[3]}, nil
	}
}
