// Package pipeline runs the per-frame detection loop: every captured
// frame is scanned for the marker synchronously, and a throttled subset
// is dispatched to the classifier asynchronously. Both streams feed the
// gate, which owns all detection state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robotmark/gatekeeper/pkg/detect"
	"github.com/robotmark/gatekeeper/pkg/gate"
)

// FrameSource captures camera frames.
type FrameSource interface {
	CaptureJPEG() ([]byte, error)
}

// maxCaptureFailures aborts the loop after roughly a second of
// consecutive capture errors at the default frame interval.
const maxCaptureFailures = 30

// Config holds the pipeline's tunable parameters.
type Config struct {
	// FrameInterval is how often frames are pulled from the source.
	FrameInterval time.Duration
}

// DefaultConfig returns the recommended pipeline configuration.
func DefaultConfig() Config {
	return Config{
		FrameInterval: 33 * time.Millisecond, // ~30 fps
	}
}

// Pipeline drives frames from a source through the detectors into the
// gate.
type Pipeline struct {
	config     Config
	gate       *gate.Gate
	scanner    detect.Scanner
	classifier detect.Classifier
	source     FrameSource
	throttle   *gate.Throttle

	inflight sync.WaitGroup
	logger   *slog.Logger
}

// New creates a pipeline. The throttle interval comes from the gate
// config so the sampling rate and the core stay in agreement.
func New(cfg Config, gateCfg gate.Config, g *gate.Gate, scanner detect.Scanner, classifier detect.Classifier, source FrameSource, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		config:     cfg,
		gate:       g,
		scanner:    scanner,
		classifier: classifier,
		source:     source,
		throttle:   gate.NewThrottle(gateCfg.SampleInterval),
		logger:     logger.With("component", "pipeline"),
	}
}

// Run captures and processes frames until the context is canceled or the
// source fails persistently. It waits for in-flight classifications
// before returning.
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.config.FrameInterval)
	defer ticker.Stop()
	defer p.inflight.Wait()

	p.logger.Info("pipeline started",
		"frame_interval", p.config.FrameInterval,
	)

	failures := 0
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopped", "frames", p.throttle.Frames())
			return nil

		case <-ticker.C:
			frame, err := p.source.CaptureJPEG()
			if err != nil {
				failures++
				if failures > maxCaptureFailures {
					return fmt.Errorf("camera feed lost after %d consecutive capture failures: %w", failures, err)
				}
				continue
			}
			failures = 0
			p.ProcessFrame(ctx, frame)
		}
	}
}

// ProcessFrame runs one frame through both channels: a synchronous
// marker scan, and (on throttled frames) an asynchronous classification
// dispatch. Exported so callers with their own frame loop can drive the
// pipeline directly.
func (p *Pipeline) ProcessFrame(ctx context.Context, frame []byte) {
	p.gate.SubmitPrimary(p.scanFrame(frame))

	// The throttle counts every frame; only the secondary channel's
	// sampling rate is reduced.
	if !p.throttle.Tick() {
		return
	}

	// No classifier configured: the channel can be toggled but never
	// confirms, keeping the gate on the safe side.
	if p.classifier == nil {
		return
	}

	ticket, ok := p.gate.SecondaryTicket()
	if !ok {
		return
	}

	requestID := uuid.NewString()
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		p.classify(ctx, ticket, requestID, frame)
	}()
}

// scanFrame converts the scanner's output into a gate event. A scan
// error counts as a miss, same as no marker in frame.
func (p *Pipeline) scanFrame(frame []byte) gate.Event {
	marker, err := p.scanner.Scan(frame)
	if err != nil {
		p.logger.Warn("marker scan failed, counted as miss", "error", err)
		return gate.Miss
	}
	if marker == nil {
		return gate.Miss
	}
	region := marker.Region
	return gate.Event{
		Present: true,
		Region:  &region,
		Payload: marker.Payload,
	}
}

// classify runs one secondary request to completion and applies its
// result. Failures fold into a miss; a disable while the request was in
// flight makes the completion a no-op.
func (p *Pipeline) classify(ctx context.Context, ticket gate.Ticket, requestID string, frame []byte) {
	result, err := p.classifier.Classify(ctx, frame)
	if err != nil {
		p.gate.SubmitSecondaryFailure(ticket, fmt.Errorf("request %s: %w", requestID, err))
		return
	}

	p.gate.SubmitSecondary(ticket, gate.Event{
		Present: result.Detected,
		Region:  result.Region(),
	})
}

// WaitIdle blocks until all in-flight classifications have completed.
func (p *Pipeline) WaitIdle() {
	p.inflight.Wait()
}

// Frames returns the number of frames processed so far.
func (p *Pipeline) Frames() uint64 {
	return p.throttle.Frames()
}
