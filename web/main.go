package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/config"
	"github.com/df07/go-whitted-raytracer/pkg/loaders"
	"github.com/df07/go-whitted-raytracer/pkg/output"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/df07/go-whitted-raytracer/pkg/sysinfo"
	"github.com/df07/go-whitted-raytracer/web/server"
)

func main() {
	logger := renderer.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Printf("Error loading configuration: %v", err)
		os.Exit(1)
	}

	// Parse command line flags
	port := flag.Int("port", cfg.Port, "Port to serve on")
	envMapPath := flag.String("envmap", cfg.EnvMap, "Environment map image shared by every render")
	envMapMaxWidth := flag.Int("envmap-max-width", cfg.EnvMaxWidth, "Downscale the environment map to at most this width (0 = full size)")
	workers := flag.Int("workers", cfg.NumWorkers, "Number of parallel workers per render (0 = CPU count)")
	flag.Parse()

	options := server.Options{
		Port:       *port,
		NumWorkers: *workers,
		TileSize:   cfg.TileSize,
	}

	options.Host = sysinfo.Report(logger)

	if *envMapPath != "" {
		env, err := loaders.LoadEnvironmentMap(*envMapPath, *envMapMaxWidth)
		if err != nil {
			logger.Printf("Environment map unavailable, using canvas colour: %v", err)
		} else {
			options.EnvironmentMap = env
			logger.Printf("Loaded environment map %s (%dx%d)", *envMapPath, env.Width, env.Height)
		}
	}

	if cfg.S3.Enabled() {
		uploader, err := output.NewS3Uploader(cfg.S3, logger)
		if err != nil {
			logger.Printf("S3 upload disabled: %v", err)
		} else {
			options.Uploader = uploader
		}
	}

	webServer := server.NewServer(options)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
	}()

	logger.Printf("Whitted Raytracer Web Server")
	logger.Printf("Visit http://localhost:%d/api/scenes to list scenes", *port)

	if err := webServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
