package renderer

import (
	"context"
	"image"
	"time"
)

// Render renders the image in parallel tiles into the caller-owned img.
// The output is identical to RenderInto. If ctx is cancelled, tiles not yet
// started are skipped and ctx.Err() is returned.
func (rt *Raytracer) Render(ctx context.Context, img *image.RGBA) (RenderStats, error) {
	if err := rt.checkBuffer(img); err != nil {
		return RenderStats{}, err
	}

	startTime := time.Now()
	tiles := NewTileGrid(rt.config.Width, rt.config.Height, rt.config.TileSize)
	pool := NewWorkerPool(ctx, rt, len(tiles), rt.config.NumWorkers)

	rt.logger.Printf("Rendering %dx%d in %d tiles using %d workers (max depth %d)",
		rt.config.Width, rt.config.Height, len(tiles), pool.GetNumWorkers(), rt.config.MaxDepth)

	pool.Start()
	for i, tile := range tiles {
		pool.SubmitTask(TileTask{Tile: tile, TaskID: i, Image: img})
	}
	pool.Stop()

	stats := RenderStats{
		TotalPixels: rt.config.Width * rt.config.Height,
		Tiles:       len(tiles),
		Workers:     pool.GetNumWorkers(),
	}

	var renderErr error
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil && renderErr == nil {
			renderErr = result.Error
		}
		stats.Rays.Add(result.Counts)
	}
	stats.Elapsed = time.Since(startTime)

	if renderErr != nil {
		rt.logger.Printf("Render cancelled after %v: %v", stats.Elapsed, renderErr)
		return stats, renderErr
	}

	rt.logger.Printf("Render completed in %v (%d primary, %d reflection, %d shadow rays)",
		stats.Elapsed, stats.Rays.Primary, stats.Rays.Reflection, stats.Rays.Shadow)
	return stats, nil
}
