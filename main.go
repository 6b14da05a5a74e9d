package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/config"
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/loaders"
	"github.com/df07/go-whitted-raytracer/pkg/output"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/df07/go-whitted-raytracer/pkg/scene"
	"github.com/df07/go-whitted-raytracer/pkg/sysinfo"
)

// options holds the parsed command line
type options struct {
	sceneName      string
	sceneFile      string
	width          int
	height         int
	fov            float64
	maxDepth       int
	minWeight      float64
	envMap         string
	envMapRequired bool
	envMapMaxWidth int
	outputDir      string
	outputFile     string
	format         string
	workers        int
	tileSize       int
	noShadows      bool
	noSpecular     bool
	noReflections  bool
	wrapChannels   bool
	upload         bool
	help           bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses args with defaults taken from the environment configuration
func parseFlags(args []string, cfg *config.Config, stdout io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(stdout)

	fs.StringVar(&opts.sceneName, "scene", "default", "Built-in scene: "+strings.Join(scene.Names(), ", "))
	fs.StringVar(&opts.sceneFile, "scene-file", "", "JSON scene description (overrides -scene)")
	fs.IntVar(&opts.width, "width", 0, "Image width (0 = scene default)")
	fs.IntVar(&opts.height, "height", 0, "Image height (0 = scene default)")
	fs.Float64Var(&opts.fov, "fov", 0, "Field of view in degrees (0 = scene default)")
	fs.IntVar(&opts.maxDepth, "max-depth", -1, "Maximum reflection depth (-1 = scene default)")
	fs.Float64Var(&opts.minWeight, "min-reflect-weight", 0, "Stop reflecting once the accumulated reflective weight drops below this")
	fs.StringVar(&opts.envMap, "envmap", cfg.EnvMap, "Environment map image (overrides the scene file)")
	fs.BoolVar(&opts.envMapRequired, "envmap-required", false, "Fail instead of falling back to the canvas colour when the environment map cannot be loaded")
	fs.IntVar(&opts.envMapMaxWidth, "envmap-max-width", cfg.EnvMaxWidth, "Downscale environment maps wider than this (0 = full size)")
	fs.StringVar(&opts.outputDir, "output-dir", cfg.OutputDir, "Directory for rendered images")
	fs.StringVar(&opts.outputFile, "out", "", "Output file (default <output-dir>/<scene>/render_<timestamp>.<format>)")
	fs.StringVar(&opts.format, "format", "png", "Output format when -out is not set: png or jpg")
	fs.IntVar(&opts.workers, "workers", cfg.NumWorkers, "Number of parallel workers (0 = CPU count)")
	fs.IntVar(&opts.tileSize, "tile-size", cfg.TileSize, "Tile size for parallel rendering")
	fs.BoolVar(&opts.noShadows, "no-shadows", false, "Disable shadow rays")
	fs.BoolVar(&opts.noSpecular, "no-specular", false, "Disable the specular term")
	fs.BoolVar(&opts.noReflections, "no-reflections", false, "Disable mirror reflections")
	fs.BoolVar(&opts.wrapChannels, "wrap-channels", false, "Truncate overbright channels modulo 256 instead of clamping")
	fs.BoolVar(&opts.upload, "upload", false, "Upload the render to the configured S3 bucket")
	fs.BoolVar(&opts.help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return opts, fs, nil
}

func printHelp(fs *flag.FlagSet, opts *options, w io.Writer) {
	fmt.Fprintln(w, "Whitted Raytracer")
	fmt.Fprintln(w, "Usage: raytracer [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available scenes:")
	for _, info := range scene.List() {
		fmt.Fprintf(w, "  %-8s - %s\n", info.ID, info.Description)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Output will be saved to %s\n",
		filepath.Join(opts.outputDir, "<scene>", "render_<timestamp>."+outputExtension(opts.format)))
}

func run(args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	opts, fs, err := parseFlags(args, cfg, stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.help {
		printHelp(fs, opts, stdout)
		return nil
	}

	logger := renderer.NewDefaultLogger()
	sysinfo.Report(logger)

	selectedScene, sceneEnvMap, err := createScene(opts.sceneName, opts.sceneFile)
	if err != nil {
		return err
	}

	envMap := opts.envMap
	if envMap == "" {
		envMap = sceneEnvMap
	}
	if err := applyEnvironmentMap(selectedScene, envMap, opts.envMapMaxWidth, opts.envMapRequired, logger); err != nil {
		return err
	}

	renderConfig, err := buildRenderConfig(selectedScene, opts)
	if err != nil {
		return err
	}

	raytracer, err := renderer.NewRaytracer(selectedScene, renderConfig)
	if err != nil {
		return err
	}
	raytracer.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	img := image.NewRGBA(image.Rect(0, 0, renderConfig.Width, renderConfig.Height))
	stats, err := raytracer.Render(ctx, img)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	logger.Printf("%d pixels, %d rays (%d occluded light samples), average luminance %.3f",
		stats.TotalPixels, stats.Rays.Total(), stats.Rays.Occluded, renderer.CalculateAverageLuminance(img))

	filename := opts.outputFile
	if filename == "" {
		filename = createOutputPath(opts.outputDir, sceneLabel(opts.sceneName, opts.sceneFile), opts.format, time.Now())
	}
	if err := output.SaveImage(filename, img); err != nil {
		return err
	}
	logger.Printf("Render saved as %s", filename)

	if opts.upload {
		uploader, err := output.NewS3Uploader(cfg.S3, logger)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)) + ".png"
		if _, err := uploader.UploadPNG(ctx, filepath.ToSlash(filepath.Join(sceneLabel(opts.sceneName, opts.sceneFile), name)), img); err != nil {
			return err
		}
	}
	return nil
}

// createScene builds the scene from a JSON file when one is given, otherwise
// the named built-in scene. It also returns the environment map the scene file names.
func createScene(sceneName, sceneFile string) (*scene.Scene, string, error) {
	if sceneFile != "" {
		description, err := loaders.LoadSceneFile(sceneFile)
		if err != nil {
			return nil, "", err
		}
		s, err := description.Build()
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", sceneFile, err)
		}
		return s, description.EnvironmentMap, nil
	}

	s, err := scene.Create(sceneName)
	if err != nil {
		return nil, "", err
	}
	return s, "", nil
}

// applyEnvironmentMap loads path into the scene. A map that cannot be loaded
// leaves the canvas colour as background unless required is set.
func applyEnvironmentMap(s *scene.Scene, path string, maxWidth int, required bool, logger core.Logger) error {
	if path == "" {
		if required {
			return fmt.Errorf("an environment map is required but none was given")
		}
		return nil
	}

	env, err := loaders.LoadEnvironmentMap(path, maxWidth)
	if err != nil {
		if required {
			return err
		}
		logger.Printf("Environment map unavailable, using canvas colour: %v", err)
		return nil
	}

	s.SetEnvironmentMap(env)
	logger.Printf("Loaded environment map %s (%dx%d)", path, env.Width, env.Height)
	return nil
}

// buildRenderConfig starts from the scene's camera settings and applies the flags
func buildRenderConfig(s *scene.Scene, opts *options) (renderer.Config, error) {
	rc := renderer.ConfigFor(s.CameraConfig)
	if opts.width > 0 {
		rc.Width = opts.width
	}
	if opts.height > 0 {
		rc.Height = opts.height
	}
	if opts.fov > 0 {
		rc.FOV = opts.fov
	}
	if opts.maxDepth >= 0 {
		rc.MaxDepth = opts.maxDepth
	}
	rc.MinReflectWeight = opts.minWeight
	rc.Shadows = !opts.noShadows
	rc.Specular = !opts.noSpecular
	rc.Reflections = !opts.noReflections
	if opts.wrapChannels {
		rc.ChannelMode = renderer.ChannelWrap
	}
	rc.NumWorkers = opts.workers
	rc.TileSize = opts.tileSize

	if err := rc.Validate(); err != nil {
		return renderer.Config{}, err
	}
	return rc, nil
}

// sceneLabel names the output subdirectory: the scene file's base name, or the built-in name
func sceneLabel(sceneName, sceneFile string) string {
	if sceneFile != "" {
		return strings.TrimSuffix(filepath.Base(sceneFile), filepath.Ext(sceneFile))
	}
	return sceneName
}

// createOutputPath returns <outputDir>/<label>/render_<timestamp>.<format>
func createOutputPath(outputDir, label, format string, now time.Time) string {
	timestamp := now.Format("20060102_150405")
	return filepath.Join(outputDir, label, fmt.Sprintf("render_%s.%s", timestamp, outputExtension(format)))
}

// outputExtension normalizes a -format value to a file extension
func outputExtension(format string) string {
	format = strings.TrimPrefix(strings.ToLower(format), ".")
	if format == "" {
		return "png"
	}
	return format
}
