package renderer

import (
	"github.com/labstack/gommon/log"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// NewDefaultLogger creates a logger writing to stdout with a "raytracer" prefix
func NewDefaultLogger() core.Logger {
	logger := log.New("raytracer")
	logger.SetHeader("${time_rfc3339} ${prefix}")
	return logger
}

type nopLogger struct{}

func (nopLogger) Printf(format string, args ...interface{}) {}
