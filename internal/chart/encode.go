package chart

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/roman-kulish/propeller-charts/internal/config"
)

const jpegQuality = 90

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format config.ImageFormat) error {
	switch format {
	case config.ImagePNG:
		return png.Encode(w, img)

	case config.ImageJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{
			Quality: jpegQuality,
		})
	}
	return fmt.Errorf("unsupported image format: %s", format)
}

// Save encodes img into the file at path, creating missing directories.
func Save(path string, img image.Image, format config.ImageFormat) (err error) {
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	if err = Encode(out, img, format); err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return nil
}

// FileName returns <name>_<kind>_<value>.<ext> for a chart of the named propeller.
func FileName(name string, c *Chart, format config.ImageFormat) string {
	return fmt.Sprintf("%s_%s_%g.%s", name, c.Kind, c.Value, format.Extension())
}
