package loaders

import (
	"fmt"
	"image"
	"io"

	"github.com/df07/go-whitted-raytracer/pkg/background"
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	// Extra decoders for environment maps; imaging registers JPEG, PNG, GIF, BMP and TIFF
	_ "golang.org/x/image/webp"
)

// ImageData contains loaded image data as Vec3 color array
type ImageData struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major, normalized 0-1
}

// LoadImage decodes an image file, honouring EXIF orientation, into a Vec3 color array
func LoadImage(filename string) (*ImageData, error) {
	img, err := imaging.Open(filename, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", filename, err)
	}
	return toImageData(img), nil
}

// DecodeImage decodes an image from r into a Vec3 color array
func DecodeImage(r io.Reader) (*ImageData, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return toImageData(img), nil
}

// LoadEnvironmentMap loads an equirectangular image as a background. Images
// wider than maxWidth are downscaled, keeping the aspect ratio; maxWidth <= 0
// keeps the full resolution.
func LoadEnvironmentMap(filename string, maxWidth int) (*background.EnvironmentMap, error) {
	img, err := imaging.Open(filename, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open environment map %s: %w", filename, err)
	}

	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = resize.Resize(uint(maxWidth), 0, img, resize.Bilinear)
	}

	data := toImageData(img)
	return background.NewEnvironmentMap(data.Width, data.Height, data.Pixels)
}

// toImageData converts any decoded image to normalized Vec3 pixels
func toImageData(img image.Image) *ImageData {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535], convert to [0, 1]
			pixels[y*width+x] = core.NewVec3(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			)
		}
	}

	return &ImageData{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}
