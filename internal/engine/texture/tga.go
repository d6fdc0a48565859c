package texture

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// TGA image types handled by DecodeTGA.
const (
	TGATypeUncompressed = 2
	TGATypeRLE          = 10
)

const tgaHeaderSize = 18

// ErrTGA is wrapped by every TGA decoding failure.
var ErrTGA = errors.New("invalid tga")

// tgaReader walks the pixel stream of a TGA file.
type tgaReader struct {
	data          []byte
	pos           int
	bytesPerPixel int
}

func (r *tgaReader) pixel() (color.RGBA, bool) {
	if r.pos+r.bytesPerPixel > len(r.data) {
		return color.RGBA{}, false
	}
	p := r.data[r.pos:]
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if r.bytesPerPixel == 4 {
		c.A = p[3]
	}
	r.pos += r.bytesPerPixel
	return c, true
}

// DecodeTGA decodes an uncompressed or RLE true-color TGA with 24 or 32
// bits per pixel. The returned image has its first row at the top,
// whatever order the file stores rows in.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, errors.Wrap(ErrTGA, "header too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := int(data[2])
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	switch {
	case colorMapType != 0:
		return nil, errors.Wrap(ErrTGA, "color-mapped images are not supported")
	case imageType != TGATypeUncompressed && imageType != TGATypeRLE:
		return nil, errors.Wrapf(ErrTGA, "image type %d is not supported", imageType)
	case bpp != 24 && bpp != 32:
		return nil, errors.Wrapf(ErrTGA, "%d bits per pixel is not supported", bpp)
	case width == 0 || height == 0:
		return nil, errors.Wrapf(ErrTGA, "empty image %dx%d", width, height)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errors.Wrap(ErrTGA, "truncated id field")
	}
	r := &tgaReader{data: data[offset:], bytesPerPixel: bpp / 8}
	if imageType == TGATypeUncompressed && len(r.data) < width*height*r.bytesPerPixel {
		return nil, errors.Wrap(ErrTGA, "truncated pixel data")
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	put := func(i int, c color.RGBA) {
		x, y := i%width, i/width
		if !topToBottom {
			y = height - 1 - y
		}
		img.SetRGBA(x, y, c)
	}

	total := width * height
	if imageType == TGATypeUncompressed {
		for i := 0; i < total; i++ {
			c, _ := r.pixel()
			put(i, c)
		}
		return img, nil
	}

	// RLE: each packet header holds a repeat flag and a run length of 1..128.
	for i := 0; i < total && r.pos < len(r.data); {
		header := r.data[r.pos]
		r.pos++
		run := int(header&0x7f) + 1

		if header&0x80 != 0 {
			c, ok := r.pixel()
			if !ok {
				break
			}
			for ; run > 0 && i < total; run-- {
				put(i, c)
				i++
			}
			continue
		}
		for ; run > 0 && i < total; run-- {
			c, ok := r.pixel()
			if !ok {
				return img, nil
			}
			put(i, c)
			i++
		}
	}
	return img, nil
}
