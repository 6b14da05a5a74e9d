package renderer

import (
	"errors"
	"fmt"

	"github.com/df07/go-whitted-raytracer/pkg/scene"
)

// ErrInvalidConfig is returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid render config")

// ChannelMode selects how a colour channel is turned into a byte
type ChannelMode int

const (
	// ChannelClamp clamps each channel to [0,1] before scaling to 0-255
	ChannelClamp ChannelMode = iota
	// ChannelWrap scales by 255, truncates towards zero and keeps the low
	// byte without clamping. Both ends wrap modulo 256: 1.2 becomes 50 and
	// -0.1 becomes 231.
	ChannelWrap
)

func (m ChannelMode) String() string {
	switch m {
	case ChannelClamp:
		return "clamp"
	case ChannelWrap:
		return "wrap"
	default:
		return fmt.Sprintf("ChannelMode(%d)", int(m))
	}
}

// Config contains rendering configuration. Shadows, Specular and Reflections
// switch the optional stages of the shading pipeline.
type Config struct {
	Width    int     // Image width
	Height   int     // Image height
	FOV      float64 // Field of view in degrees
	MaxDepth int     // Maximum reflection depth; deeper rays see the background

	Shadows     bool // Cast shadow rays towards each light
	Specular    bool // Add the Phong specular term
	Reflections bool // Spawn mirror reflection rays

	MinReflectWeight float64     // Stop reflecting once the accumulated reflective weight falls below this
	Epsilon          float64     // Offset of secondary ray origins along the surface normal
	ChannelMode      ChannelMode // Byte conversion of colour channels

	TileSize   int // Size of each tile for parallel rendering
	NumWorkers int // Number of parallel workers (0 = use CPU count)
}

// DefaultConfig returns sensible default values with every pipeline stage enabled
func DefaultConfig() Config {
	return Config{
		Width:            1024,
		Height:           768,
		FOV:              90,
		MaxDepth:         4,
		Shadows:          true,
		Specular:         true,
		Reflections:      true,
		MinReflectWeight: 0,
		Epsilon:          1e-3,
		ChannelMode:      ChannelClamp,
		TileSize:         64,
		NumWorkers:       0,
	}
}

// ConfigFor returns the default config with a scene's recommended camera settings applied.
// Non-positive sizes and fov keep the defaults; MaxDepth is taken as given, so
// a scene can ask for zero reflection depth.
func ConfigFor(cc scene.CameraConfig) Config {
	config := DefaultConfig()
	if cc.Width > 0 {
		config.Width = cc.Width
	}
	if cc.Height > 0 {
		config.Height = cc.Height
	}
	if cc.FOV > 0 {
		config.FOV = cc.FOV
	}
	if cc.MaxDepth >= 0 {
		config.MaxDepth = cc.MaxDepth
	}
	return config
}

// Validate checks the config for values the renderer cannot work with
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case !(c.FOV > 0 && c.FOV < 180):
		return fmt.Errorf("%w: field of view %g must be in (0, 180)", ErrInvalidConfig, c.FOV)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: max depth %d is negative", ErrInvalidConfig, c.MaxDepth)
	case !(c.Epsilon > 0):
		return fmt.Errorf("%w: epsilon %g must be positive", ErrInvalidConfig, c.Epsilon)
	case c.MinReflectWeight < 0:
		return fmt.Errorf("%w: min reflect weight %g is negative", ErrInvalidConfig, c.MinReflectWeight)
	case c.TileSize <= 0:
		return fmt.Errorf("%w: tile size %d", ErrInvalidConfig, c.TileSize)
	case c.NumWorkers < 0:
		return fmt.Errorf("%w: worker count %d is negative", ErrInvalidConfig, c.NumWorkers)
	case c.ChannelMode != ChannelClamp && c.ChannelMode != ChannelWrap:
		return fmt.Errorf("%w: unknown channel mode %d", ErrInvalidConfig, int(c.ChannelMode))
	}
	return nil
}
