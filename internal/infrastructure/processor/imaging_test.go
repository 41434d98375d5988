package processor

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestFitWidthDoesNotUpscale(t *testing.T) {
	p := New()

	small := gradient(300, 200)
	assert.Equal(t, small.Bounds(), p.FitWidth(small, 1200).Bounds())

	big := p.FitWidth(gradient(2000, 1000), 1200)
	assert.Equal(t, 1200, big.Bounds().Dx())
	assert.Equal(t, 600, big.Bounds().Dy())
}

func TestCoverIsExactSquare(t *testing.T) {
	p := New()

	for _, size := range []int{64, 256, 512} {
		b := p.Cover(gradient(900, 300), size).Bounds()
		assert.Equal(t, size, b.Dx())
		assert.Equal(t, size, b.Dy())
	}
}

func TestSaveAndOpen(t *testing.T) {
	p := New()
	dir := t.TempDir()

	jpegPath := filepath.Join(dir, "out.tmp")
	require.NoError(t, p.Save(gradient(40, 20), jpegPath, infrastructure.JPEG, 80))

	f, err := os.Open(jpegPath)
	require.NoError(t, err)
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 40, cfg.Width)

	img, err := p.Open(jpegPath)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestSaveUnsupportedFormat(t *testing.T) {
	err := New().Save(gradient(4, 4), filepath.Join(t.TempDir(), "x"), "bmp", 80)
	assert.Error(t, err)
}
