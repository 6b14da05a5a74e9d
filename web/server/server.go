package server

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/background"
	"github.com/df07/go-whitted-raytracer/pkg/output"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/df07/go-whitted-raytracer/pkg/scene"
	"github.com/df07/go-whitted-raytracer/pkg/sysinfo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Request limits
const (
	minImageSize = 16
	maxImageSize = 2000
	maxDepthMax  = 32
)

// Options configures a Server
type Options struct {
	Port           int
	NumWorkers     int                        // 0 = CPU count
	TileSize       int                        // 0 = renderer default
	EnvironmentMap *background.EnvironmentMap // Shared by every render; optional
	Uploader       *output.S3Uploader         // Enables ?upload=true; optional
	Host           sysinfo.Info               // Reported by /api/health
}

// Server handles web requests for the raytracer
type Server struct {
	options Options
	echo    *echo.Echo
	started time.Time
}

// NewServer creates a new web server with all routes registered
func NewServer(options Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetPrefix("raytracer")

	s := &Server{
		options: options,
		echo:    e,
		started: time.Now(),
	}

	e.Use(middleware.Recover())
	e.Use(corsMiddleware)

	e.GET("/api/health", s.handleHealth)
	e.GET("/api/scenes", s.handleScenes)
	e.GET("/api/scene-config", s.handleSceneConfig)
	e.GET("/api/render", s.handleRender)
	e.GET("/api/render/progressive", s.handleProgressive)
	e.GET("/api/inspect", s.handleInspect)

	return s
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Logger returns the server log
func (s *Server) Logger() echo.Logger {
	return s.echo.Logger
}

// Start starts the web server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.options.Port)
	s.echo.Logger.Printf("Starting web server on http://localhost%s", addr)
	return s.echo.Start(addr)
}

// Shutdown stops the server, waiting for in-flight requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func corsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		c.Response().Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusOK)
		}

		return next(c)
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptimeSeconds":  int64(time.Since(s.started).Seconds()),
		"host":           s.options.Host,
		"environmentMap": s.options.EnvironmentMap != nil,
		"upload":         s.options.Uploader != nil,
	})
}

// handleScenes lists the built-in scenes
func (s *Server) handleScenes(c echo.Context) error {
	return c.JSON(http.StatusOK, scene.List())
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(c echo.Context) error {
	sceneName := c.QueryParam("scene")
	if sceneName == "" {
		sceneName = "default"
	}

	sceneObj, err := scene.Create(sceneName)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"scene":    sceneName,
		"defaults": sceneObj.CameraConfig,
		"limits": map[string]interface{}{
			"width":    map[string]int{"min": minImageSize, "max": maxImageSize},
			"height":   map[string]int{"min": minImageSize, "max": maxImageSize},
			"fov":      map[string]float64{"min": 1, "max": 179},
			"maxDepth": map[string]int{"min": 0, "max": maxDepthMax},
		},
	})
}

// handleRender renders a full image and returns it as PNG
func (s *Server) handleRender(c echo.Context) error {
	req, err := s.parseRenderRequest(c.QueryParams())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if req.Upload && s.options.Uploader == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "upload is not configured"})
	}

	raytracer, err := renderer.NewRaytracer(req.SceneObj, req.Config)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	raytracer.SetLogger(s.echo.Logger)

	ctx := c.Request().Context()
	img := image.NewRGBA(image.Rect(0, 0, req.Config.Width, req.Config.Height))
	stats, err := raytracer.Render(ctx, img)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}

	data, err := output.PNGBytes(img)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	header := c.Response().Header()
	header.Set("X-Render-Time-Ms", strconv.FormatInt(stats.Elapsed.Milliseconds(), 10))
	header.Set("X-Render-Rays", strconv.FormatInt(stats.Rays.Total(), 10))

	if req.Upload {
		name := fmt.Sprintf("%s/render_%s.png", req.Scene, time.Now().Format("20060102_150405"))
		key, err := s.options.Uploader.UploadPNG(ctx, name, img)
		if err != nil {
			return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
		}
		header.Set("X-Object-Key", key)
	}

	return c.Blob(http.StatusOK, "image/png", data)
}

// RenderRequest represents a parsed render request
type RenderRequest struct {
	Scene    string
	SceneObj *scene.Scene
	Config   renderer.Config
	Upload   bool
}

// parseRenderRequest builds the scene and render config from query parameters.
// Missing parameters fall back to the scene's own camera settings.
func (s *Server) parseRenderRequest(values url.Values) (*RenderRequest, error) {
	req := &RenderRequest{Scene: values.Get("scene")}
	if req.Scene == "" {
		req.Scene = "default"
	}

	sceneObj, err := scene.Create(req.Scene)
	if err != nil {
		return nil, err
	}
	if s.options.EnvironmentMap != nil {
		sceneObj.SetEnvironmentMap(s.options.EnvironmentMap)
	}
	req.SceneObj = sceneObj

	config := renderer.ConfigFor(sceneObj.CameraConfig)
	if s.options.NumWorkers > 0 {
		config.NumWorkers = s.options.NumWorkers
	}
	if s.options.TileSize > 0 {
		config.TileSize = s.options.TileSize
	}

	if config.Width, err = parseIntParam(values, "width", config.Width, minImageSize, maxImageSize); err != nil {
		return nil, err
	}
	if config.Height, err = parseIntParam(values, "height", config.Height, minImageSize, maxImageSize); err != nil {
		return nil, err
	}
	if config.FOV, err = parseFloatParam(values, "fov", config.FOV, 1, 179); err != nil {
		return nil, err
	}
	if config.MaxDepth, err = parseIntParam(values, "maxDepth", config.MaxDepth, 0, maxDepthMax); err != nil {
		return nil, err
	}
	if config.MinReflectWeight, err = parseFloatParam(values, "minReflectWeight", config.MinReflectWeight, 0, 1); err != nil {
		return nil, err
	}
	if config.Shadows, err = parseBoolParam(values, "shadows", config.Shadows); err != nil {
		return nil, err
	}
	if config.Specular, err = parseBoolParam(values, "specular", config.Specular); err != nil {
		return nil, err
	}
	if config.Reflections, err = parseBoolParam(values, "reflections", config.Reflections); err != nil {
		return nil, err
	}

	clamp, err := parseBoolParam(values, "clamp", true)
	if err != nil {
		return nil, err
	}
	if !clamp {
		config.ChannelMode = renderer.ChannelWrap
	}

	if req.Upload, err = parseBoolParam(values, "upload", false); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	req.Config = config
	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseBoolParam parses a boolean parameter (true/false/1/0) from URL query
func parseBoolParam(values url.Values, key string, defaultValue bool) (bool, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
