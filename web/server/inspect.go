package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/material"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/labstack/echo/v4"
)

// InspectResponse represents the JSON response for pixel inspection
type InspectResponse struct {
	Hit         bool          `json:"hit"`
	SphereIndex int           `json:"sphereIndex"`
	Point       [3]float64    `json:"point"`
	Normal      [3]float64    `json:"normal"`
	Distance    float64       `json:"distance"`
	Sphere      *SphereInfo   `json:"sphere,omitempty"`
	Material    *MaterialInfo `json:"material,omitempty"`
	Color       [3]float64    `json:"color"` // Shaded colour before byte conversion
	Direction   [3]float64    `json:"direction"`
}

// SphereInfo describes the sphere under the inspected pixel
type SphereInfo struct {
	Center [3]float64 `json:"center"`
	Radius float64    `json:"radius"`
}

// MaterialInfo describes the material of the inspected sphere
type MaterialInfo struct {
	ID               int        `json:"id"`
	Color            string     `json:"color"` // #rrggbb
	Albedo           [3]float64 `json:"albedo"`
	SpecularExponent float64    `json:"specularExponent"`
	Reflective       bool       `json:"reflective"`
}

func toArray(v core.Vec3) [3]float64 {
	return [3]float64{v[0], v[1], v[2]}
}

// extractMaterialInfo summarizes a material for display
func extractMaterialInfo(id material.ID, mat material.Material) *MaterialInfo {
	c := mat.Color
	return &MaterialInfo{
		ID: int(id),
		Color: fmt.Sprintf("#%02x%02x%02x",
			int(255*max(0, min(1, c[0]))), int(255*max(0, min(1, c[1]))), int(255*max(0, min(1, c[2])))),
		Albedo:           [3]float64{mat.Albedo.Diffuse, mat.Albedo.Specular, mat.Albedo.Reflective},
		SpecularExponent: mat.SpecularExponent,
		Reflective:       mat.IsReflective(),
	}
}

// inspectPixel casts the primary ray through pixel (px, py) and reports the
// nearest sphere along with the colour the renderer computes for it
func inspectPixel(req *RenderRequest, px, py int) (InspectResponse, error) {
	raytracer, err := renderer.NewRaytracer(req.SceneObj, req.Config)
	if err != nil {
		return InspectResponse{}, err
	}

	camera := renderer.NewCamera(req.Config.Width, req.Config.Height, req.Config.FOV)
	ray := camera.GetRay(px, py)

	response := InspectResponse{
		SphereIndex: -1,
		Color:       toArray(raytracer.Shade(ray, 0)),
		Direction:   toArray(ray.Direction),
	}

	hit, isHit := req.SceneObj.NearestHit(ray)
	if !isHit {
		return response, nil
	}

	sphere := req.SceneObj.Spheres()[hit.Index]
	response.Hit = true
	response.SphereIndex = hit.Index
	response.Point = toArray(hit.Point)
	response.Normal = toArray(hit.Normal)
	response.Distance = hit.Distance
	response.Sphere = sphereInfo(sphere)
	response.Material = extractMaterialInfo(hit.Material, req.SceneObj.Material(hit.Material))
	return response, nil
}

func sphereInfo(sphere geometry.Sphere) *SphereInfo {
	return &SphereInfo{Center: toArray(sphere.Center), Radius: sphere.Radius}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(c echo.Context) error {
	req, err := s.parseRenderRequest(c.QueryParams())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
	}

	pixelX, err := strconv.Atoi(c.QueryParam("x"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
	}
	pixelY, err := strconv.Atoi(c.QueryParam("y"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
	}

	if pixelX < 0 || pixelX >= req.Config.Width || pixelY < 0 || pixelY >= req.Config.Height {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
	}

	response, err := inspectPixel(req, pixelX, pixelY)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, response)
}
