package renderer

import (
	"context"
	"image"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int         // 1-based
	Depth      int         // Reflection depth rendered in this pass
	Image      *image.RGBA // Full image for this pass
	Stats      RenderStats
	IsLast     bool
}

// ProgressiveRaytracer refines an image over several passes, each allowing
// one more level of reflection than the last, up to the configured MaxDepth.
type ProgressiveRaytracer struct {
	scene  Scene
	config Config
	logger core.Logger
}

// NewProgressiveRaytracer creates a new progressive raytracer
func NewProgressiveRaytracer(scene Scene, config Config, logger core.Logger) (*ProgressiveRaytracer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &ProgressiveRaytracer{
		scene:  scene,
		config: config,
		logger: logger,
	}, nil
}

// TotalPasses returns the number of passes RenderProgressive will produce
func (pr *ProgressiveRaytracer) TotalPasses() int {
	if !pr.config.Reflections {
		return 1
	}
	return pr.config.MaxDepth + 1
}

// depthForPass maps a 1-based pass number to the reflection depth it renders
func (pr *ProgressiveRaytracer) depthForPass(passNumber int) int {
	if !pr.config.Reflections {
		return pr.config.MaxDepth
	}
	return passNumber - 1
}

// RenderProgressive renders with channel-based communication.
// The caller should read from both channels; both are closed when rendering ends.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		totalPasses := pr.TotalPasses()
		pr.logger.Printf("Starting progressive rendering with %d passes", totalPasses)

		for pass := 1; pass <= totalPasses; pass++ {
			// Check if client disconnected before starting this pass
			select {
			case <-ctx.Done():
				pr.logger.Printf("Rendering cancelled before pass %d", pass)
				errChan <- ctx.Err()
				return
			default:
			}

			config := pr.config
			config.MaxDepth = pr.depthForPass(pass)

			raytracer, err := NewRaytracer(pr.scene, config)
			if err != nil {
				errChan <- err
				return
			}
			raytracer.SetLogger(pr.logger)

			img := image.NewRGBA(image.Rect(0, 0, config.Width, config.Height))
			stats, err := raytracer.Render(ctx, img)
			if err != nil {
				errChan <- err
				return
			}

			pr.logger.Printf("Pass %d/%d completed in %v (reflection depth %d)",
				pass, totalPasses, stats.Elapsed, config.MaxDepth)

			result := PassResult{
				PassNumber: pass,
				Depth:      config.MaxDepth,
				Image:      img,
				Stats:      stats,
				IsLast:     pass == totalPasses,
			}

			select {
			case passChan <- result:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return passChan, errChan
}
