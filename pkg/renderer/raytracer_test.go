package renderer

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/df07/go-whitted-raytracer/pkg/background"
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
	"github.com/df07/go-whitted-raytracer/pkg/scene"
)

var testCanvas = core.NewVec3(0.2, 0.7, 0.8)

// sphereSpec is a compact sphere description for test scenes
type sphereSpec struct {
	center core.Vec3
	radius float64
	mat    material.Material
}

type lightSpec struct {
	position  core.Vec3
	intensity float64
}

func buildScene(t *testing.T, spheres []sphereSpec, lightSpecs []lightSpec) *scene.Scene {
	t.Helper()
	s := scene.New(testCanvas)
	for i, sp := range spheres {
		id, err := s.AddMaterial("", sp.mat)
		if err != nil {
			t.Fatalf("Unexpected error adding material %d: %v", i, err)
		}
		if err := s.AddSphere(sp.center, sp.radius, id); err != nil {
			t.Fatalf("Unexpected error adding sphere %d: %v", i, err)
		}
	}
	for i, l := range lightSpecs {
		if err := s.AddPointLight(l.position, l.intensity); err != nil {
			t.Fatalf("Unexpected error adding light %d: %v", i, err)
		}
	}
	return s
}

func newTestRaytracer(t *testing.T, s Scene, mutate func(*Config)) *Raytracer {
	t.Helper()
	config := DefaultConfig()
	config.Width = 16
	config.Height = 12
	if mutate != nil {
		mutate(&config)
	}
	rt, err := NewRaytracer(s, config)
	if err != nil {
		t.Fatalf("Unexpected error creating raytracer: %v", err)
	}
	return rt
}

var (
	whiteDiffuse  = material.Material{Color: core.NewVec3(1, 1, 1), Albedo: material.Albedo{Diffuse: 1}, SpecularExponent: 1}
	pureSpecular  = material.Material{Color: core.NewVec3(1, 1, 1), Albedo: material.Albedo{Specular: 1}, SpecularExponent: 1}
	perfectMirror = material.Material{Color: core.NewVec3(1, 1, 1), Albedo: material.Albedo{Reflective: 1}, SpecularExponent: 1}
	forward       = core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
)

func TestRaytracer_EmptySceneIsCanvas(t *testing.T) {
	s, err := scene.NewEmptyScene()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rt := newTestRaytracer(t, s, nil)

	if got := rt.Shade(forward, 0); got != scene.DefaultCanvas {
		t.Errorf("Expected canvas colour %v, got %v", scene.DefaultCanvas, got)
	}

	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	stats, err := rt.RenderInto(img)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := vec3ToColor(scene.DefaultCanvas, ChannelClamp)
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			if got := img.RGBAAt(x, y); got != expected {
				t.Fatalf("Pixel (%d,%d): expected %v, got %v", x, y, expected, got)
			}
		}
	}
	if stats.Rays.Shadow != 0 || stats.Rays.Reflection != 0 {
		t.Errorf("Expected no secondary rays in an empty scene, got %+v", stats.Rays)
	}
}

func TestRaytracer_OccludedLightContributesNothing(t *testing.T) {
	target := sphereSpec{core.NewVec3(0, 0, -5), 1, whiteDiffuse}
	// Behind the camera, between the shaded point (0,0,-4) and the light
	occluder := sphereSpec{core.NewVec3(0, 0, 2), 0.5, whiteDiffuse}
	light := lightSpec{core.NewVec3(0, 0, 5), 1}

	lit := newTestRaytracer(t, buildScene(t, []sphereSpec{target}, []lightSpec{light}), nil)
	shadowed := newTestRaytracer(t, buildScene(t, []sphereSpec{target, occluder}, []lightSpec{light}), nil)

	litColor := lit.Shade(forward, 0)
	if !litColor.ApproxEqualThreshold(core.NewVec3(1, 1, 1), 1e-12) {
		t.Errorf("Expected fully lit colour (1,1,1), got %v", litColor)
	}

	var counts RayCounts
	shadowedColor := shadowed.shade(forward, 0, 1, &counts)
	if shadowedColor != (core.Vec3{}) {
		t.Errorf("Expected zero energy from an occluded light, got %v", shadowedColor)
	}
	if counts.Shadow != 1 || counts.Occluded != 1 {
		t.Errorf("Expected one occluded shadow ray, got %+v", counts)
	}
}

func TestRaytracer_OccluderBeyondLightDoesNotShadow(t *testing.T) {
	target := sphereSpec{core.NewVec3(0, 0, -5), 1, whiteDiffuse}
	occluder := sphereSpec{core.NewVec3(0, 0, 2), 0.5, whiteDiffuse}
	// Light sits between the shaded point and the occluder
	light := lightSpec{core.NewVec3(0, 0, 0.5), 1}

	rt := newTestRaytracer(t, buildScene(t, []sphereSpec{target, occluder}, []lightSpec{light}), nil)

	color := rt.Shade(forward, 0)
	if !color.ApproxEqualThreshold(core.NewVec3(1, 1, 1), 1e-12) {
		t.Errorf("Expected an unshadowed point, got %v", color)
	}
}

func TestRaytracer_ShadowsDisabled(t *testing.T) {
	target := sphereSpec{core.NewVec3(0, 0, -5), 1, whiteDiffuse}
	occluder := sphereSpec{core.NewVec3(0, 0, 2), 0.5, whiteDiffuse}
	light := lightSpec{core.NewVec3(0, 0, 5), 1}

	rt := newTestRaytracer(t, buildScene(t, []sphereSpec{target, occluder}, []lightSpec{light}), func(c *Config) {
		c.Shadows = false
	})

	color := rt.Shade(forward, 0)
	if !color.ApproxEqualThreshold(core.NewVec3(1, 1, 1), 1e-12) {
		t.Errorf("Expected light to pass with shadows disabled, got %v", color)
	}
}

func TestRaytracer_MirrorConvergesToBackground(t *testing.T) {
	// Two mirrors facing each other along z: the center ray bounces forever
	// without a depth bound.
	s := buildScene(t, []sphereSpec{
		{core.NewVec3(0, 0, -5), 1, perfectMirror},
		{core.NewVec3(0, 0, 5), 1, perfectMirror},
	}, nil)

	for _, maxDepth := range []int{0, 1, 4, 16} {
		rt := newTestRaytracer(t, s, func(c *Config) { c.MaxDepth = maxDepth })

		var counts RayCounts
		color := rt.shade(forward, 0, 1, &counts)
		if color != testCanvas {
			t.Errorf("MaxDepth %d: expected background %v, got %v", maxDepth, testCanvas, color)
		}
		if counts.Reflection != int64(maxDepth+1) {
			t.Errorf("MaxDepth %d: expected %d reflection rays, got %d", maxDepth, maxDepth+1, counts.Reflection)
		}
	}

	rt := newTestRaytracer(t, s, func(c *Config) { c.MaxDepth = 4 })
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	if _, err := rt.RenderInto(img); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestRaytracer_MinReflectWeightStopsEarly(t *testing.T) {
	halfMirror := material.Material{Color: core.NewVec3(1, 1, 1), Albedo: material.Albedo{Reflective: 0.5}, SpecularExponent: 1}
	s := buildScene(t, []sphereSpec{
		{core.NewVec3(0, 0, -5), 1, halfMirror},
		{core.NewVec3(0, 0, 5), 1, halfMirror},
	}, nil)

	rt := newTestRaytracer(t, s, func(c *Config) {
		c.MaxDepth = 10
		c.MinReflectWeight = 0.2
	})

	var counts RayCounts
	color := rt.shade(forward, 0, 1, &counts)

	// Weights 0.5 and 0.25 recurse, 0.125 is cut off
	if counts.Reflection != 2 {
		t.Errorf("Expected 2 reflection rays, got %d", counts.Reflection)
	}
	expected := testCanvas.Mul(0.125)
	if !color.ApproxEqualThreshold(expected, 1e-12) {
		t.Errorf("Expected %v, got %v", expected, color)
	}
}

func TestRaytracer_ReflectionsDisabled(t *testing.T) {
	s := buildScene(t, []sphereSpec{{core.NewVec3(0, 0, -5), 1, perfectMirror}}, nil)
	rt := newTestRaytracer(t, s, func(c *Config) { c.Reflections = false })

	var counts RayCounts
	color := rt.shade(forward, 0, 1, &counts)
	if color != (core.Vec3{}) {
		t.Errorf("Expected black mirror without reflections, got %v", color)
	}
	if counts.Reflection != 0 {
		t.Errorf("Expected no reflection rays, got %d", counts.Reflection)
	}
}

func TestRaytracer_SpecularUsesIncomingDirection(t *testing.T) {
	s := buildScene(t,
		[]sphereSpec{{core.NewVec3(0, 0, -5), 1, pureSpecular}},
		[]lightSpec{{core.NewVec3(0, 0, 5), 2}})
	rt := newTestRaytracer(t, s, nil)

	// Head-on: the mirrored light direction lines up with the view ray
	color := rt.Shade(forward, 0)
	if color != core.NewVec3(2, 2, 2) {
		t.Errorf("Expected full highlight (2,2,2), got %v", color)
	}

	// Off-axis ray whose origin is not the camera: the highlight must use this
	// ray's own direction, not the direction from the world origin.
	ray := core.NewRay(core.NewVec3(0.6, 0, 0), core.NewVec3(0, 0, -1))
	hit, ok := s.NearestHit(ray)
	if !ok {
		t.Fatal("Expected off-axis ray to hit the sphere")
	}
	lightDir := core.Normalize(core.NewVec3(0, 0, 5).Sub(hit.Point))
	mirrored := core.Reflect(lightDir, hit.Normal)

	expected := 2 * max(0, mirrored.Dot(ray.Direction))
	fromOrigin := 2 * max(0, mirrored.Dot(core.Normalize(hit.Point)))

	got := rt.Shade(ray, 1)
	if math.Abs(got[0]-expected) > 1e-12 {
		t.Errorf("Expected specular %f from the incoming direction, got %f", expected, got[0])
	}
	if math.Abs(expected-fromOrigin) < 1e-3 {
		t.Fatalf("Test setup does not distinguish view vectors: %f vs %f", expected, fromOrigin)
	}

	noSpecular := newTestRaytracer(t, s, func(c *Config) { c.Specular = false })
	if got := noSpecular.Shade(forward, 0); got != (core.Vec3{}) {
		t.Errorf("Expected no highlight with specular disabled, got %v", got)
	}
}

func TestRaytracer_EnvironmentMapBackground(t *testing.T) {
	pixels := make([]core.Vec3, 8*4)
	for i := range pixels {
		pixels[i] = core.NewVec3(float64(i)/32, 0.5, 1)
	}
	env, err := background.NewEnvironmentMap(8, 4, pixels)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	s := scene.New(testCanvas)
	s.SetEnvironmentMap(env)
	rt := newTestRaytracer(t, s, nil)

	// -z maps to column 2, row 2 of an 8x4 map
	if got := rt.Shade(forward, 0); got != pixels[2*8+2] {
		t.Errorf("Expected environment pixel %v, got %v", pixels[2*8+2], got)
	}
}

func TestRaytracer_RenderParallelMatchesSequential(t *testing.T) {
	s, err := scene.NewDefaultScene()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	config := ConfigFor(s.CameraConfig)
	config.Width = 64
	config.Height = 48
	config.TileSize = 16
	config.NumWorkers = 4
	rt, err := NewRaytracer(s, config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	sequential := image.NewRGBA(image.Rect(0, 0, 64, 48))
	seqStats, err := rt.RenderInto(sequential)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	parallel := image.NewRGBA(image.Rect(0, 0, 64, 48))
	parStats, err := rt.Render(context.Background(), parallel)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := range sequential.Pix {
		if sequential.Pix[i] != parallel.Pix[i] {
			t.Fatalf("Parallel render differs from sequential at byte %d", i)
		}
	}

	if parStats.Tiles != 12 || parStats.Workers != 4 {
		t.Errorf("Expected 12 tiles and 4 workers, got %d and %d", parStats.Tiles, parStats.Workers)
	}
	if parStats.Rays != seqStats.Rays {
		t.Errorf("Expected identical ray counts, got %+v vs %+v", parStats.Rays, seqStats.Rays)
	}
	if parStats.Rays.Primary != 64*48 {
		t.Errorf("Expected %d primary rays, got %d", 64*48, parStats.Rays.Primary)
	}
	if parStats.TotalPixels != 64*48 {
		t.Errorf("Expected %d pixels, got %d", 64*48, parStats.TotalPixels)
	}
}

func TestRaytracer_RenderIntoSubImage(t *testing.T) {
	s, err := scene.NewEmptyScene()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rt := newTestRaytracer(t, s, nil)

	// An externally owned buffer whose bounds do not start at the origin
	big := image.NewRGBA(image.Rect(0, 0, 32, 32))
	sub := big.SubImage(image.Rect(8, 8, 24, 20)).(*image.RGBA)
	if _, err := rt.RenderInto(sub); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := vec3ToColor(scene.DefaultCanvas, ChannelClamp)
	if got := big.RGBAAt(8, 8); got != expected {
		t.Errorf("Expected canvas at sub-image origin, got %v", got)
	}
	if got := big.RGBAAt(0, 0); got.A != 0 {
		t.Errorf("Pixels outside the sub-image must stay untouched, got %v", got)
	}
}

func TestRaytracer_BufferSizeMismatch(t *testing.T) {
	s, _ := scene.NewEmptyScene()
	rt := newTestRaytracer(t, s, nil)

	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if _, err := rt.RenderInto(img); !errors.Is(err, ErrBufferSize) {
		t.Errorf("Expected ErrBufferSize, got %v", err)
	}
	if _, err := rt.Render(context.Background(), img); !errors.Is(err, ErrBufferSize) {
		t.Errorf("Expected ErrBufferSize, got %v", err)
	}
	if _, err := rt.RenderInto(nil); !errors.Is(err, ErrBufferSize) {
		t.Errorf("Expected ErrBufferSize for nil buffer, got %v", err)
	}
}

func TestRaytracer_RenderCancelled(t *testing.T) {
	s, _ := scene.NewDefaultScene()
	rt := newTestRaytracer(t, s, func(c *Config) { c.TileSize = 4 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	stats, err := rt.Render(ctx, img)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if stats.Rays.Primary != 0 {
		t.Errorf("Expected no rays after cancellation, got %d", stats.Rays.Primary)
	}
}

func TestNewRaytracer_InvalidConfig(t *testing.T) {
	s, _ := scene.NewEmptyScene()
	config := DefaultConfig()
	config.Width = 0

	if _, err := NewRaytracer(s, config); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
