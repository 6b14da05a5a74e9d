package loaders

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
	"github.com/df07/go-whitted-raytracer/pkg/scene"
)

// ErrInvalidRender is returned for out-of-range values in a scene file's render block
var ErrInvalidRender = errors.New("invalid render settings")

// SceneFile is the JSON description of a scene
type SceneFile struct {
	Canvas         *[3]float64         `json:"canvas,omitempty"`
	EnvironmentMap string              `json:"environmentMap,omitempty"`
	Materials      []MaterialFile      `json:"materials"`
	Spheres        []SphereFile        `json:"spheres"`
	Lights         []LightFile         `json:"lights"`
	Render         *RenderFile         `json:"render,omitempty"`
}

// MaterialFile describes a named material. Albedo has 2 or 3 components.
type MaterialFile struct {
	Name             string     `json:"name"`
	Color            [3]float64 `json:"color"`
	Albedo           []float64  `json:"albedo"`
	SpecularExponent float64    `json:"specularExponent"`
}

// SphereFile describes a sphere referring to a material by name
type SphereFile struct {
	Center   [3]float64 `json:"center"`
	Radius   float64    `json:"radius"`
	Material string     `json:"material"`
}

// RenderFile holds the recommended camera settings. Omitted fields keep the
// scene defaults; a present field is applied as given, so "maxDepth": 0
// renders without reflections.
type RenderFile struct {
	Width    *int     `json:"width,omitempty"`
	Height   *int     `json:"height,omitempty"`
	FOV      *float64 `json:"fov,omitempty"`
	MaxDepth *int     `json:"maxDepth,omitempty"`
}

// LightFile describes a point light
type LightFile struct {
	Position  [3]float64 `json:"position"`
	Intensity float64    `json:"intensity"`
}

// ParseScene decodes a JSON scene description. Unknown fields are rejected.
func ParseScene(reader io.Reader) (*SceneFile, error) {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	var file SceneFile
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return &file, nil
}

// LoadSceneFile loads a JSON scene description. A relative environment map
// path is resolved against the directory of the scene file.
func LoadSceneFile(filename string) (*SceneFile, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	sceneFile, err := ParseScene(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	if sceneFile.EnvironmentMap != "" && !filepath.IsAbs(sceneFile.EnvironmentMap) {
		sceneFile.EnvironmentMap = filepath.Join(filepath.Dir(filename), sceneFile.EnvironmentMap)
	}
	return sceneFile, nil
}

// Build validates the description and creates the scene. The environment map
// is not loaded; see LoadEnvironmentMap.
func (f *SceneFile) Build() (*scene.Scene, error) {
	canvas := scene.DefaultCanvas
	if f.Canvas != nil {
		canvas = vec3(*f.Canvas)
	}
	s := scene.New(canvas)

	if f.Render != nil {
		camera, err := f.Render.apply(s.CameraConfig)
		if err != nil {
			return nil, err
		}
		s.CameraConfig = camera
	}

	for i, mf := range f.Materials {
		if mf.Name == "" {
			return nil, fmt.Errorf("material %d: name is required", i)
		}
		albedo, err := material.NewAlbedo(mf.Albedo...)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", mf.Name, err)
		}
		m, err := material.New(vec3(mf.Color), albedo, mf.SpecularExponent)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", mf.Name, err)
		}
		if _, err := s.AddMaterial(mf.Name, m); err != nil {
			return nil, err
		}
	}

	for i, sf := range f.Spheres {
		id, err := s.MaterialID(sf.Material)
		if err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		if err := s.AddSphere(vec3(sf.Center), sf.Radius, id); err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
	}

	for i, lf := range f.Lights {
		if err := s.AddPointLight(vec3(lf.Position), lf.Intensity); err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
	}

	return s, nil
}

// apply overrides the fields present in the render block, rejecting values
// the renderer cannot use
func (r *RenderFile) apply(camera scene.CameraConfig) (scene.CameraConfig, error) {
	if r.Width != nil {
		if *r.Width <= 0 {
			return camera, fmt.Errorf("%w: width %d must be positive", ErrInvalidRender, *r.Width)
		}
		camera.Width = *r.Width
	}
	if r.Height != nil {
		if *r.Height <= 0 {
			return camera, fmt.Errorf("%w: height %d must be positive", ErrInvalidRender, *r.Height)
		}
		camera.Height = *r.Height
	}
	if r.FOV != nil {
		if !(*r.FOV > 0 && *r.FOV < 180) {
			return camera, fmt.Errorf("%w: fov %g must be in (0, 180)", ErrInvalidRender, *r.FOV)
		}
		camera.FOV = *r.FOV
	}
	if r.MaxDepth != nil {
		if *r.MaxDepth < 0 {
			return camera, fmt.Errorf("%w: maxDepth %d is negative", ErrInvalidRender, *r.MaxDepth)
		}
		camera.MaxDepth = *r.MaxDepth
	}
	return camera, nil
}

func vec3(v [3]float64) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// validateFilePath rejects paths that cannot be scene files
func validateFilePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	// Check for null bytes (could indicate path manipulation)
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}

	if !strings.HasSuffix(strings.ToLower(filepath.Clean(filename)), ".json") {
		return fmt.Errorf("invalid file type: only .json scene files are allowed")
	}
	return nil
}
