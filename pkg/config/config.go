package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the environment-level configuration shared by the CLI and the web server.
// Command-line flags take precedence over these values.
type Config struct {
	OutputDir   string // Directory for rendered images
	NumWorkers  int    // 0 = use CPU count
	TileSize    int    // Tile size for parallel rendering
	EnvMap      string // Default environment map, empty for none
	EnvMaxWidth int    // Downscale environment maps wider than this, 0 = never
	Port        int    // Web server port
	S3          S3Config
}

// S3Config holds the optional object-storage upload settings
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Prefix    string // Key prefix for uploaded images
}

// Enabled reports whether uploads are configured
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Load reads an optional .env file and then the process environment.
// The .env path comes from RAYTRACER_ENV_FILE, default ".env"; a missing
// file is not an error. Variables already set in the environment win over
// the file.
func Load() (*Config, error) {
	envFile := getEnv("RAYTRACER_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{
		OutputDir: getEnv("RAYTRACER_OUTPUT_DIR", "output"),
		EnvMap:    os.Getenv("RAYTRACER_ENVMAP"),
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    os.Getenv("S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Prefix:    os.Getenv("S3_PREFIX"),
		},
	}

	var err error
	if cfg.NumWorkers, err = getEnvInt("RAYTRACER_WORKERS", 0); err != nil {
		return nil, err
	}
	if cfg.TileSize, err = getEnvInt("RAYTRACER_TILE_SIZE", 64); err != nil {
		return nil, err
	}
	if cfg.EnvMaxWidth, err = getEnvInt("RAYTRACER_ENVMAP_MAX_WIDTH", 0); err != nil {
		return nil, err
	}
	if cfg.Port, err = getEnvInt("RAYTRACER_PORT", 8080); err != nil {
		return nil, err
	}

	if cfg.NumWorkers < 0 {
		return nil, fmt.Errorf("RAYTRACER_WORKERS must not be negative, got %d", cfg.NumWorkers)
	}
	if cfg.TileSize <= 0 {
		return nil, fmt.Errorf("RAYTRACER_TILE_SIZE must be positive, got %d", cfg.TileSize)
	}
	return cfg, nil
}

// getEnv returns the value of key, or fallback when it is unset
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
