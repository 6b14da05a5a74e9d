package renderer

import (
	"image"
	"time"
)

// RayCounts tallies the rays cast while rendering a region
type RayCounts struct {
	Primary    int64 // Camera rays
	Reflection int64 // Mirror reflection rays
	Shadow     int64 // Shadow rays towards lights
	Occluded   int64 // Shadow rays that found an occluder
}

// Add accumulates other into rc
func (rc *RayCounts) Add(other RayCounts) {
	rc.Primary += other.Primary
	rc.Reflection += other.Reflection
	rc.Shadow += other.Shadow
	rc.Occluded += other.Occluded
}

// Total returns the number of rays of every kind
func (rc RayCounts) Total() int64 {
	return rc.Primary + rc.Reflection + rc.Shadow
}

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels int           // Total number of pixels rendered
	Tiles       int           // Number of tiles (1 for sequential renders)
	Workers     int           // Number of workers used
	Rays        RayCounts     // Rays cast, by kind
	Elapsed     time.Duration // Wall time of the render
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of img in [0,1]
func CalculateAverageLuminance(img *image.RGBA) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			total += (0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)) / 255.0
		}
	}
	return total / float64(pixels)
}
