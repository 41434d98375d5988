package processor

import (
	"fmt"
	"image"
	"os"

	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
	"github.com/disintegration/imaging"

	// webp sources
	_ "golang.org/x/image/webp"
)

// ImageProcessor is the image engine backed by disintegration/imaging.
type ImageProcessor struct {
	filter imaging.ResampleFilter
}

var _ infrastructure.ImageEngine = (*ImageProcessor)(nil)

func New() *ImageProcessor {
	return &ImageProcessor{filter: imaging.Lanczos}
}

func (p *ImageProcessor) Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Open - imaging.Open: %w", err)
	}

	return img, nil
}

func (p *ImageProcessor) FitWidth(img image.Image, maxWidth int) image.Image {
	if img.Bounds().Dx() <= maxWidth {
		return img
	}

	return imaging.Resize(img, maxWidth, 0, p.filter)
}

func (p *ImageProcessor) Cover(img image.Image, size int) image.Image {
	return imaging.Fill(img, size, size, imaging.Center, p.filter)
}

func (p *ImageProcessor) Save(img image.Image, path string, format infrastructure.ImageFormat, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ImageProcessor - Save - os.Create: %w", err)
	}

	err = encodeImage(f, img, format, quality)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("ImageProcessor - Save - f.Close: %w", cerr)
	}

	return err
}

func encodeImage(f *os.File, img image.Image, format infrastructure.ImageFormat, quality int) error {
	var imgFormat imaging.Format

	switch format {
	case infrastructure.PNG:
		imgFormat = imaging.PNG
	case infrastructure.JPEG:
		imgFormat = imaging.JPEG
	default:
		return fmt.Errorf("ImageProcessor - encodeImage: unsupported format %q", format)
	}

	err := imaging.Encode(f, img, imgFormat, imaging.JPEGQuality(quality))
	if err != nil {
		return fmt.Errorf("ImageProcessor - encodeImage - imaging.Encode: %w", err)
	}

	return nil
}
