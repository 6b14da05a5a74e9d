package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// ErrUnknownScene is returned by Create for names that are not built in
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo describes a built-in scene
type SceneInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

type builtin struct {
	info SceneInfo
	new  func() (*Scene, error)
}

var builtins = map[string]builtin{
	"default": {
		info: SceneInfo{ID: "default", DisplayName: "Default", Description: "Ivory, rubber and two mirror spheres under three lights"},
		new:  NewDefaultScene,
	},
	"mirrors": {
		info: SceneInfo{ID: "mirrors", DisplayName: "Facing Mirrors", Description: "Two mirror spheres reflecting each other around a matte sphere"},
		new:  NewMirrorsScene,
	},
	"shadow": {
		info: SceneInfo{ID: "shadow", DisplayName: "Hard Shadow", Description: "A small sphere casting a hard shadow on a large one"},
		new:  NewShadowScene,
	},
	"empty": {
		info: SceneInfo{ID: "empty", DisplayName: "Empty", Description: "No spheres and no lights: canvas colour only"},
		new:  NewEmptyScene,
	},
}

// Names returns the built-in scene names in sorted order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns metadata for every built-in scene, sorted by ID
func List() []SceneInfo {
	infos := make([]SceneInfo, 0, len(builtins))
	for _, name := range Names() {
		infos = append(infos, builtins[name].info)
	}
	return infos
}

// Create builds the named built-in scene
func Create(name string) (*Scene, error) {
	b, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return b.new()
}

// DefaultCanvas is the flat background colour of the built-in scenes
var DefaultCanvas = core.NewVec3(0.2, 0.7, 0.8)

// Standard materials shared by the built-in scenes
var (
	Ivory     = material.Material{Color: core.NewVec3(0.4, 0.4, 0.3), Albedo: material.Albedo{Diffuse: 0.6, Specular: 0.3, Reflective: 0.1}, SpecularExponent: 50}
	RedRubber = material.Material{Color: core.NewVec3(0.3, 0.1, 0.1), Albedo: material.Albedo{Diffuse: 0.9, Specular: 0.1, Reflective: 0.0}, SpecularExponent: 10}
	Mirror    = material.Material{Color: core.NewVec3(1.0, 1.0, 1.0), Albedo: material.Albedo{Diffuse: 0.0, Specular: 10.0, Reflective: 0.8}, SpecularExponent: 1425}
)

// sceneBuilder collects the first error so scene constructors read as a flat list
type sceneBuilder struct {
	scene *Scene
	err   error
}

func (b *sceneBuilder) material(name string, m material.Material) material.ID {
	if b.err != nil {
		return 0
	}
	id, err := b.scene.AddMaterial(name, m)
	b.err = err
	return id
}

func (b *sceneBuilder) sphere(center core.Vec3, radius float64, mat material.ID) {
	if b.err != nil {
		return
	}
	b.err = b.scene.AddSphere(center, radius, mat)
}

func (b *sceneBuilder) light(position core.Vec3, intensity float64) {
	if b.err != nil {
		return
	}
	b.err = b.scene.AddPointLight(position, intensity)
}

func (b *sceneBuilder) build() (*Scene, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.scene, nil
}

// NewDefaultScene creates the classic four-sphere scene
func NewDefaultScene() (*Scene, error) {
	b := &sceneBuilder{scene: New(DefaultCanvas)}

	ivory := b.material("ivory", Ivory)
	redRubber := b.material("red_rubber", RedRubber)
	mirror := b.material("mirror", Mirror)

	b.sphere(core.NewVec3(-3, 0, -16), 2, ivory)
	b.sphere(core.NewVec3(-1, -1.5, -12), 2, mirror)
	b.sphere(core.NewVec3(1.5, -0.5, -18), 3, redRubber)
	b.sphere(core.NewVec3(7, 5, -18), 4, mirror)

	b.light(core.NewVec3(-20, 20, 20), 1.5)
	b.light(core.NewVec3(30, 50, -25), 1.8)
	b.light(core.NewVec3(30, 20, 30), 1.7)

	return b.build()
}

// NewMirrorsScene creates two mirror spheres facing each other. Rays trapped
// between them only terminate through the depth bound.
func NewMirrorsScene() (*Scene, error) {
	b := &sceneBuilder{scene: New(DefaultCanvas)}
	b.scene.CameraConfig = CameraConfig{Width: 640, Height: 480, FOV: 60, MaxDepth: 8}

	ivory := b.material("ivory", Ivory)
	mirror := b.material("mirror", Mirror)

	b.sphere(core.NewVec3(-2.6, 0, -10), 2.5, mirror)
	b.sphere(core.NewVec3(2.6, 0, -10), 2.5, mirror)
	b.sphere(core.NewVec3(0, -1.2, -7), 0.8, ivory)

	b.light(core.NewVec3(0, 20, 0), 1.5)
	b.light(core.NewVec3(-10, 5, 10), 0.8)

	return b.build()
}

// NewShadowScene creates a small sphere shadowing a large one from a single light
func NewShadowScene() (*Scene, error) {
	b := &sceneBuilder{scene: New(DefaultCanvas)}
	b.scene.CameraConfig = CameraConfig{Width: 640, Height: 480, FOV: 60, MaxDepth: 2}

	ivory := b.material("ivory", Ivory)
	redRubber := b.material("red_rubber", RedRubber)

	b.sphere(core.NewVec3(0, -1003, -12), 1000, ivory)
	b.sphere(core.NewVec3(0, 0, -12), 1.5, redRubber)

	b.light(core.NewVec3(0, 30, -12), 2.0)

	return b.build()
}

// NewEmptyScene creates a scene with nothing in it
func NewEmptyScene() (*Scene, error) {
	s := New(DefaultCanvas)
	s.CameraConfig = CameraConfig{Width: 320, Height: 240, FOV: 90, MaxDepth: 4}
	return s, nil
}
