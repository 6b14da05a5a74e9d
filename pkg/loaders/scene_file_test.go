package loaders

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/lights"
	"github.com/df07/go-whitted-raytracer/pkg/material"
	"github.com/df07/go-whitted-raytracer/pkg/scene"
)

const testSceneJSON = `{
  "canvas": [0.1, 0.2, 0.3],
  "environmentMap": "envmap.jpg",
  "materials": [
    {"name": "ivory", "color": [0.4, 0.4, 0.3], "albedo": [0.6, 0.3, 0.1], "specularExponent": 50},
    {"name": "matte", "color": [0.3, 0.1, 0.1], "albedo": [0.9, 0.1], "specularExponent": 10}
  ],
  "spheres": [
    {"center": [-3, 0, -16], "radius": 2, "material": "ivory"},
    {"center": [1.5, -0.5, -18], "radius": 3, "material": "matte"}
  ],
  "lights": [
    {"position": [-20, 20, 20], "intensity": 1.5}
  ],
  "render": {"width": 320, "height": 200, "fov": 60, "maxDepth": 3}
}`

func writeSceneFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
	return path
}

func TestLoadSceneFile(t *testing.T) {
	path := writeSceneFile(t, testSceneJSON)

	sceneFile, err := LoadSceneFile(path)
	if err != nil {
		t.Fatalf("LoadSceneFile failed: %v", err)
	}

	expectedEnv := filepath.Join(filepath.Dir(path), "envmap.jpg")
	if sceneFile.EnvironmentMap != expectedEnv {
		t.Errorf("Expected environment map %s, got %s", expectedEnv, sceneFile.EnvironmentMap)
	}

	s, err := sceneFile.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if s.Canvas() != core.NewVec3(0.1, 0.2, 0.3) {
		t.Errorf("Expected canvas (0.1,0.2,0.3), got %v", s.Canvas())
	}
	if len(s.Spheres()) != 2 || len(s.Lights()) != 1 || s.MaterialCount() != 2 {
		t.Fatalf("Expected 2 spheres, 1 light and 2 materials, got %d, %d and %d",
			len(s.Spheres()), len(s.Lights()), s.MaterialCount())
	}

	expectedCamera := scene.CameraConfig{Width: 320, Height: 200, FOV: 60, MaxDepth: 3}
	if s.CameraConfig != expectedCamera {
		t.Errorf("Expected camera %+v, got %+v", expectedCamera, s.CameraConfig)
	}

	matte := s.Material(s.Spheres()[1].Material)
	if matte.Albedo.Reflective != 0 || matte.IsReflective() {
		t.Errorf("Expected a two-component albedo to disable reflection, got %+v", matte.Albedo)
	}
	ivory := s.Material(s.Spheres()[0].Material)
	if ivory.SpecularExponent != 50 || ivory.Albedo.Reflective != 0.1 {
		t.Errorf("Unexpected ivory material %+v", ivory)
	}
}

func TestSceneFile_DefaultsWithoutOptionalBlocks(t *testing.T) {
	sceneFile, err := ParseScene(strings.NewReader(`{"materials": [], "spheres": [], "lights": []}`))
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}
	s, err := sceneFile.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Canvas() != scene.DefaultCanvas {
		t.Errorf("Expected default canvas, got %v", s.Canvas())
	}
	if s.CameraConfig != scene.DefaultCameraConfig() {
		t.Errorf("Expected default camera, got %+v", s.CameraConfig)
	}
}

func TestSceneFile_RenderBlock(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected scene.CameraConfig
	}{
		{
			name:     "zero max depth is kept",
			json:     `{"render": {"maxDepth": 0}}`,
			expected: scene.CameraConfig{Width: 1024, Height: 768, FOV: 90, MaxDepth: 0},
		},
		{
			name:     "partial block keeps other defaults",
			json:     `{"render": {"width": 64, "fov": 45}}`,
			expected: scene.CameraConfig{Width: 64, Height: 768, FOV: 45, MaxDepth: 4},
		},
		{
			name:     "empty block",
			json:     `{"render": {}}`,
			expected: scene.DefaultCameraConfig(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sceneFile, err := ParseScene(strings.NewReader(tt.json))
			if err != nil {
				t.Fatalf("ParseScene failed: %v", err)
			}
			s, err := sceneFile.Build()
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if s.CameraConfig != tt.expected {
				t.Errorf("Expected camera %+v, got %+v", tt.expected, s.CameraConfig)
			}
		})
	}
}

func TestSceneFile_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		json        string
		expectedErr error
	}{
		{
			name:        "unknown material",
			json:        `{"spheres": [{"center": [0,0,-5], "radius": 1, "material": "gold"}]}`,
			expectedErr: material.ErrUnknownMaterial,
		},
		{
			name: "zero radius",
			json: `{"materials": [{"name": "m", "color": [1,1,1], "albedo": [1,0], "specularExponent": 1}],
			        "spheres": [{"center": [0,0,-5], "radius": 0, "material": "m"}]}`,
			expectedErr: geometry.ErrInvalidRadius,
		},
		{
			name:        "one component albedo",
			json:        `{"materials": [{"name": "m", "color": [1,1,1], "albedo": [1], "specularExponent": 1}]}`,
			expectedErr: material.ErrInvalidAlbedo,
		},
		{
			name:        "zero exponent",
			json:        `{"materials": [{"name": "m", "color": [1,1,1], "albedo": [1,0]}]}`,
			expectedErr: material.ErrInvalidExponent,
		},
		{
			name:        "negative width",
			json:        `{"render": {"width": -5}}`,
			expectedErr: ErrInvalidRender,
		},
		{
			name:        "zero height",
			json:        `{"render": {"height": 0}}`,
			expectedErr: ErrInvalidRender,
		},
		{
			name:        "negative fov",
			json:        `{"render": {"fov": -10}}`,
			expectedErr: ErrInvalidRender,
		},
		{
			name:        "fov 180",
			json:        `{"render": {"fov": 180}}`,
			expectedErr: ErrInvalidRender,
		},
		{
			name:        "negative max depth",
			json:        `{"render": {"maxDepth": -1}}`,
			expectedErr: ErrInvalidRender,
		},
		{
			name:        "negative light",
			json:        `{"lights": [{"position": [0,0,0], "intensity": -1}]}`,
			expectedErr: lights.ErrInvalidIntensity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sceneFile, err := ParseScene(strings.NewReader(tt.json))
			if err != nil {
				t.Fatalf("ParseScene failed: %v", err)
			}
			if _, err := sceneFile.Build(); !errors.Is(err, tt.expectedErr) {
				t.Errorf("Expected %v, got %v", tt.expectedErr, err)
			}
		})
	}
}

func TestParseScene_RejectsUnknownFields(t *testing.T) {
	if _, err := ParseScene(strings.NewReader(`{"cameras": []}`)); err == nil {
		t.Error("Expected error for unknown field")
	}
}

func TestLoadSceneFile_PathValidation(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{"empty", ""},
		{"wrong extension", "scene.pbrt"},
		{"null byte", "scene\x00.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSceneFile(tt.filename); err == nil {
				t.Errorf("Expected error for %q", tt.filename)
			}
		})
	}
}
