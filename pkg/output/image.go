package output

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// SaveImage writes img to filename, picking the encoder from the extension
// (.png, .jpg, .gif, .tif, .bmp). Parent directories are created as needed.
func SaveImage(filename string, img image.Image) error {
	if _, err := imaging.FormatFromFilename(filename); err != nil {
		return fmt.Errorf("unsupported output file %s: %w", filename, err)
	}
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}
	if err := imaging.Save(img, filename, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("error saving %s: %w", filename, err)
	}
	return nil
}

// EncodePNG writes img to w as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// PNGBytes encodes img as PNG into memory
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
