// Package texture decodes image files and uploads them as 2D textures.
package texture

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/rigview/internal/engine/gpu"
	"github.com/Faultbox/rigview/internal/logger"
)

// ErrRejected is returned when the device refuses a texture, usually
// because it is larger than the driver supports.
var ErrRejected = errors.New("texture rejected by device")

// Loader uploads image files through a device.
type Loader struct {
	dev gpu.Device
	// MaxSize downscales images whose larger side exceeds it. Zero
	// uploads images at their original size.
	MaxSize int
}

// NewLoader returns a loader uploading through dev.
func NewLoader(dev gpu.Device) *Loader {
	return &Loader{dev: dev}
}

func log() *zap.Logger {
	return logger.Named("texture")
}

// Load decodes the image at path and uploads it. The returned handle is
// never zero on success.
func (l *Loader) Load(path string) (uint32, error) {
	img, err := Decode(path)
	if err != nil {
		return 0, err
	}
	if l.MaxSize > 0 {
		img = fit(img, l.MaxSize)
	}

	b := img.Bounds()
	tex := l.dev.CreateTexture2D(FlipRows(img), b.Dx(), b.Dy())
	if tex == 0 {
		return 0, errors.Wrapf(ErrRejected, "%s (%dx%d)", path, b.Dx(), b.Dy())
	}
	log().Debug("texture uploaded",
		zap.String("path", path),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Uint32("handle", tex),
	)
	return tex, nil
}

// Decode reads an image file as RGBA. TGA is chosen by extension since the
// format has no signature; everything else is sniffed.
func Decode(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading image")
	}

	var img image.Image
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err = DecodeTGA(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return ToRGBA(img), nil
}

// ToRGBA converts img to an RGBA image with its origin at (0, 0).
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return rgba
}

// fit scales img down so neither side exceeds limit.
func fit(img *image.RGBA, limit int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}
	if w >= h {
		w, h = limit, h*limit/w
	} else {
		w, h = w*limit/h, limit
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// FlipRows returns the image's pixels with the bottom row first, the
// order texture uploads expect.
func FlipRows(img *image.RGBA) []uint8 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	row := w * 4
	out := make([]uint8, row*h)
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+row]
		copy(out[(h-1-y)*row:], src)
	}
	return out
}
