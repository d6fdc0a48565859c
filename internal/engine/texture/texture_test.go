package texture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/rigview/internal/engine/gpu/gputest"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// writeStripes writes a 2x2 PNG whose top row is red and bottom row blue.
func writeStripes(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		img.SetRGBA(x, 0, red)
		img.SetRGBA(x, 1, blue)
	}
	path := filepath.Join(dir, "stripes.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestLoadUploadsBottomRowFirst(t *testing.T) {
	dev := gputest.New()
	path := writeStripes(t, t.TempDir())

	tex, err := NewLoader(dev).Load(path)
	require.NoError(t, err)
	require.NotZero(t, tex)

	got := dev.Textures[tex]
	assert.Equal(t, 2, got.Width)
	assert.Equal(t, 2, got.Height)
	assert.Equal(t, []uint8{
		0, 0, 255, 255, 0, 0, 255, 255,
		255, 0, 0, 255, 255, 0, 0, 255,
	}, got.Pixels)
}

func TestLoadRejected(t *testing.T) {
	dev := gputest.New()
	dev.RejectTextures = true
	path := writeStripes(t, t.TempDir())

	tex, err := NewLoader(dev).Load(path)
	assert.Zero(t, tex)
	assert.True(t, errors.Is(err, ErrRejected))
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(gputest.New())

	_, err := l.Load(filepath.Join(dir, "absent.png"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0644))
	_, err = l.Load(bad)
	assert.Error(t, err)
}

func TestLoadMaxSize(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 64, 16))
	path := filepath.Join(dir, "wide.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	dev := gputest.New()
	l := NewLoader(dev)
	l.MaxSize = 32
	tex, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 32, dev.Textures[tex].Width)
	assert.Equal(t, 8, dev.Textures[tex].Height)
}

func tgaHeader(imageType, width, height, bpp int, descriptor byte) []byte {
	h := make([]byte, tgaHeaderSize)
	h[2] = byte(imageType)
	h[12], h[13] = byte(width), byte(width>>8)
	h[14], h[15] = byte(height), byte(height>>8)
	h[16] = byte(bpp)
	h[17] = descriptor
	return h
}

func TestDecodeTGAUncompressed(t *testing.T) {
	// Bottom-to-top: the blue row is stored first.
	data := tgaHeader(TGATypeUncompressed, 1, 2, 24, 0)
	data = append(data, 255, 0, 0, 0, 0, 255)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	rgba := ToRGBA(img)
	assert.Equal(t, red, rgba.RGBAAt(0, 0))
	assert.Equal(t, blue, rgba.RGBAAt(0, 1))
}

func TestDecodeTGATopToBottomAlpha(t *testing.T) {
	data := tgaHeader(TGATypeUncompressed, 1, 2, 32, 0x20)
	data = append(data, 0, 0, 255, 128, 255, 0, 0, 255)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	rgba := ToRGBA(img)
	assert.Equal(t, color.RGBA{R: 255, A: 128}, rgba.RGBAAt(0, 0))
	assert.Equal(t, blue, rgba.RGBAAt(0, 1))
}

func TestDecodeTGARLE(t *testing.T) {
	data := tgaHeader(TGATypeRLE, 3, 1, 24, 0x20)
	// Run of two red pixels, then one raw blue pixel.
	data = append(data, 0x81, 0, 0, 255, 0x00, 255, 0, 0)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	rgba := ToRGBA(img)
	assert.Equal(t, red, rgba.RGBAAt(0, 0))
	assert.Equal(t, red, rgba.RGBAAt(1, 0))
	assert.Equal(t, blue, rgba.RGBAAt(2, 0))
}

func TestDecodeTGAErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short header", []byte{0, 0, 2}},
		{"color mapped", func() []byte { h := tgaHeader(1, 1, 1, 24, 0); h[1] = 1; return h }()},
		{"grayscale", tgaHeader(3, 1, 1, 8, 0)},
		{"16 bit", tgaHeader(TGATypeUncompressed, 1, 1, 16, 0)},
		{"truncated", append(tgaHeader(TGATypeUncompressed, 2, 2, 24, 0), 1, 2, 3)},
		{"empty", tgaHeader(TGATypeUncompressed, 0, 4, 24, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTGA(tt.data)
			assert.True(t, errors.Is(err, ErrTGA), "got %v", err)
		})
	}
}

func TestDecodeChoosesTGAByExtension(t *testing.T) {
	dir := t.TempDir()
	data := tgaHeader(TGATypeUncompressed, 1, 1, 24, 0)
	data = append(data, 0, 0, 255)
	path := filepath.Join(dir, "dot.TGA")
	require.NoError(t, os.WriteFile(path, data, 0644))

	img, err := Decode(path)
	require.NoError(t, err)
	assert.Equal(t, red, img.RGBAAt(0, 0))
}

func TestToRGBANormalizesOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	src.Set(5, 5, red)
	src.Set(6, 5, blue)

	got := ToRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 1), got.Bounds())
	assert.Equal(t, red, got.RGBAAt(0, 0))
	assert.Equal(t, blue, got.RGBAAt(1, 0))
}
