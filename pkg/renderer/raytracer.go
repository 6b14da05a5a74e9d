package renderer

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/background"
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/lights"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// ErrBufferSize is returned when the output image does not match the configured size
var ErrBufferSize = errors.New("output buffer size does not match render config")

// Scene interface to avoid circular imports
type Scene interface {
	NearestHit(ray core.Ray) (geometry.Hit, bool)
	Material(id material.ID) material.Material
	Lights() []lights.Light
	Background() background.Background
}

// Raytracer shades rays against an immutable scene. It holds no mutable
// state, so one Raytracer can serve any number of goroutines.
type Raytracer struct {
	scene  Scene
	camera *Camera
	config Config
	logger core.Logger
}

// NewRaytracer creates a new raytracer
func NewRaytracer(scene Scene, config Config) (*Raytracer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Raytracer{
		scene:  scene,
		camera: NewCamera(config.Width, config.Height, config.FOV),
		config: config,
		logger: nopLogger{},
	}, nil
}

// SetLogger sets the logger used for render progress
func (rt *Raytracer) SetLogger(logger core.Logger) {
	if logger == nil {
		logger = nopLogger{}
	}
	rt.logger = logger
}

// Config returns the render configuration
func (rt *Raytracer) Config() Config {
	return rt.config
}

// Shade returns the colour seen along ray. depth is 0 for camera rays.
func (rt *Raytracer) Shade(ray core.Ray, depth int) core.Vec3 {
	var counts RayCounts
	return rt.shade(ray, depth, 1, &counts)
}

// shade is the recursive Whitted shading step. weight is the product of the
// reflective albedos along the path so far.
func (rt *Raytracer) shade(ray core.Ray, depth int, weight float64, counts *RayCounts) core.Vec3 {
	if depth > rt.config.MaxDepth {
		return rt.scene.Background().Sample(ray.Direction)
	}

	hit, isHit := rt.scene.NearestHit(ray)
	if !isHit {
		return rt.scene.Background().Sample(ray.Direction)
	}

	mat := rt.scene.Material(hit.Material)
	dir := ray.Direction
	normal := hit.Normal

	var reflectColor core.Vec3
	if rt.config.Reflections && mat.IsReflective() {
		reflectColor = rt.reflect(hit, dir, depth, weight*math.Abs(mat.Albedo.Reflective), counts)
	}

	diffuse, specular := 0.0, 0.0
	for _, light := range rt.scene.Lights() {
		lightDir, lightDistance, intensity := light.Illuminate(hit.Point)

		if rt.config.Shadows && rt.occluded(hit.Point, normal, lightDir, lightDistance, counts) {
			continue
		}

		diffuse += intensity * max(0, lightDir.Dot(normal))
		if rt.config.Specular {
			specular += intensity * math.Pow(max(0, core.Reflect(lightDir, normal).Dot(dir)), mat.SpecularExponent)
		}
	}

	color := mat.Color.Mul(diffuse * mat.Albedo.Diffuse)
	if rt.config.Specular {
		color = color.Add(core.White.Mul(specular * mat.Albedo.Specular))
	}
	if rt.config.Reflections {
		color = color.Add(reflectColor.Mul(mat.Albedo.Reflective))
	}
	return color
}

// reflect traces the mirror reflection of dir at hit. Once the accumulated
// weight drops below MinReflectWeight the path ends as if the depth bound was hit.
func (rt *Raytracer) reflect(hit geometry.Hit, dir core.Vec3, depth int, weight float64, counts *RayCounts) core.Vec3 {
	reflectDir := core.Normalize(core.Reflect(dir, hit.Normal))
	if weight < rt.config.MinReflectWeight {
		return rt.scene.Background().Sample(reflectDir)
	}

	origin := core.OffsetOrigin(hit.Point, hit.Normal, reflectDir, rt.config.Epsilon)
	counts.Reflection++
	return rt.shade(core.NewRay(origin, reflectDir), depth+1, weight, counts)
}

// occluded casts a shadow ray from point towards a light and reports whether
// any sphere lies strictly closer than the light.
func (rt *Raytracer) occluded(point, normal, lightDir core.Vec3, lightDistance float64, counts *RayCounts) bool {
	origin := core.OffsetOrigin(point, normal, lightDir, rt.config.Epsilon)
	counts.Shadow++

	hit, isHit := rt.scene.NearestHit(core.Ray{Origin: origin, Direction: lightDir})
	if isHit && hit.Distance < lightDistance {
		counts.Occluded++
		return true
	}
	return false
}

// checkBuffer verifies img can hold the configured image
func (rt *Raytracer) checkBuffer(img *image.RGBA) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrBufferSize)
	}
	bounds := img.Bounds()
	if bounds.Dx() != rt.config.Width || bounds.Dy() != rt.config.Height {
		return fmt.Errorf("%w: buffer is %dx%d, config is %dx%d",
			ErrBufferSize, bounds.Dx(), bounds.Dy(), rt.config.Width, rt.config.Height)
	}
	return nil
}

// RenderBounds shades the pixels inside bounds (image-relative, row-major)
// and writes them into img.
func (rt *Raytracer) RenderBounds(img *image.RGBA, bounds image.Rectangle, counts *RayCounts) {
	origin := img.Bounds().Min

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			ray := rt.camera.GetRay(i, j)
			counts.Primary++
			color := rt.shade(ray, 0, 1, counts)
			img.SetRGBA(origin.X+i, origin.Y+j, vec3ToColor(color, rt.config.ChannelMode))
		}
	}
}

// RenderInto renders every pixel sequentially in row-major order into the
// caller-owned img, which must match the configured size.
func (rt *Raytracer) RenderInto(img *image.RGBA) (RenderStats, error) {
	if err := rt.checkBuffer(img); err != nil {
		return RenderStats{}, err
	}

	startTime := time.Now()
	var counts RayCounts
	rt.RenderBounds(img, image.Rect(0, 0, rt.config.Width, rt.config.Height), &counts)

	return RenderStats{
		TotalPixels: rt.config.Width * rt.config.Height,
		Tiles:       1,
		Workers:     1,
		Rays:        counts,
		Elapsed:     time.Since(startTime),
	}, nil
}
