package renderer

import (
	"image/color"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// vec3ToColor converts a 0-1 normalized colour to RGBA bytes
func vec3ToColor(c core.Vec3, mode ChannelMode) color.RGBA {
	return color.RGBA{
		R: channelToByte(c[0], mode),
		G: channelToByte(c[1], mode),
		B: channelToByte(c[2], mode),
		A: 255,
	}
}

// channelToByte converts one channel; see ChannelWrap for the unclamped mode
func channelToByte(v float64, mode ChannelMode) uint8 {
	if mode == ChannelWrap {
		return uint8(int64(255 * v))
	}
	return uint8(255 * max(0, min(1, v)))
}
