package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/output"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/labstack/echo/v4"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "pass", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// PassUpdate is sent via SSE when a progressive pass completes
type PassUpdate struct {
	PassNumber  int       `json:"passNumber"`
	TotalPasses int       `json:"totalPasses"`
	Depth       int       `json:"depth"`
	ImageData   string    `json:"imageData"` // Base64 encoded PNG
	ElapsedMs   int64     `json:"elapsedMs"`
	Stats       PassStats `json:"stats"`
	IsComplete  bool      `json:"isComplete"`
}

// PassStats represents render statistics of one pass
type PassStats struct {
	TotalPixels    int   `json:"totalPixels"`
	PrimaryRays    int64 `json:"primaryRays"`
	ReflectionRays int64 `json:"reflectionRays"`
	ShadowRays     int64 `json:"shadowRays"`
	OccludedRays   int64 `json:"occludedRays"`
	RenderMs       int64 `json:"renderMs"`
}

// handleProgressive streams one image per reflection depth via SSE
func (s *Server) handleProgressive(c echo.Context) error {
	req, err := s.parseRenderRequest(c.QueryParams())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	w := c.Response()
	s.setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request().Context()

	// Single writer goroutine owns the response body
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(ctx, w, sseEventChan)
	}()

	// Console messages from the renderer are forwarded as SSE events
	consoleChan := make(chan ConsoleMessage, 50)
	stopConsole := make(chan struct{})
	consoleDone := make(chan struct{})
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, s.echo.Logger, consoleChan)
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, stopConsole, sseEventChan)
	}()

	raytracer, err := renderer.NewProgressiveRaytracer(req.SceneObj, req.Config, webLogger)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
	} else {
		passChan, errChan := raytracer.RenderProgressive(ctx)
		s.handleRenderingEvents(ctx, sseEventChan, passChan, errChan, raytracer.TotalPasses(), time.Now())
	}

	// The console channel is never closed: a cancelled render may still log
	close(stopConsole)
	<-consoleDone
	close(sseEventChan)
	<-writerDone
	return nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(ctx context.Context, w *echo.Response, sseEventChan <-chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				// Client disconnected during write
				return
			}
			w.Flush()

		case <-ctx.Done():
			return
		}
	}
}

// streamConsoleMessages forwards console messages until stop is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, stop <-chan struct{}, sseEventChan chan<- SSEEvent) {
	for {
		select {
		case consoleMsg := <-consoleChan:
			data, err := json.Marshal(consoleMsg)
			if err != nil {
				s.echo.Logger.Printf("Error marshaling console message: %v", err)
				continue
			}

			select {
			case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip message to avoid blocking
			}

		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleRenderingEvents sends every pass and then a completion or error event
func (s *Server) handleRenderingEvents(ctx context.Context, sseEventChan chan<- SSEEvent,
	passChan <-chan renderer.PassResult, errChan <-chan error, totalPasses int, startTime time.Time) {

	for passResult := range passChan {
		s.handlePassComplete(ctx, sseEventChan, passResult, totalPasses, startTime)
	}

	if err := <-errChan; err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: "Rendering completed"}:
	case <-ctx.Done():
	}
}

// handlePassComplete encodes a pass image and sends it
func (s *Server) handlePassComplete(ctx context.Context, sseEventChan chan<- SSEEvent, passResult renderer.PassResult, totalPasses int, startTime time.Time) {
	imageData, err := s.imageToBase64PNG(passResult.Image)
	if err != nil {
		s.echo.Logger.Printf("Error encoding pass %d: %v", passResult.PassNumber, err)
		return
	}

	rays := passResult.Stats.Rays
	update := PassUpdate{
		PassNumber:  passResult.PassNumber,
		TotalPasses: totalPasses,
		Depth:       passResult.Depth,
		ImageData:   imageData,
		ElapsedMs:   time.Since(startTime).Milliseconds(),
		Stats: PassStats{
			TotalPixels:    passResult.Stats.TotalPixels,
			PrimaryRays:    rays.Primary,
			ReflectionRays: rays.Reflection,
			ShadowRays:     rays.Shadow,
			OccludedRays:   rays.Occluded,
			RenderMs:       passResult.Stats.Elapsed.Milliseconds(),
		},
		IsComplete: passResult.IsLast,
	}

	data, err := json.Marshal(update)
	if err != nil {
		s.echo.Logger.Printf("Error marshaling pass update: %v", err)
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "pass", Data: string(data)}:
	case <-ctx.Done():
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	data, err := output.PNGBytes(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
