package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robotmark/gatekeeper/internal/httpc"
	"github.com/robotmark/gatekeeper/pkg/gate"
)

const providerScanner = "scanner"

// HTTPScanner decodes markers through a local decoder sidecar: one JPEG
// POST per frame, fast enough to run synchronously on the frame loop.
type HTTPScanner struct {
	endpoint      string
	targetPayload string
	client        *http.Client
	logger        *slog.Logger
}

// HTTPScannerConfig configures the sidecar client.
type HTTPScannerConfig struct {
	// Endpoint is the decoder's scan URL.
	Endpoint string

	// TargetPayload filters decoded markers; empty accepts any marker.
	TargetPayload string

	// Timeout bounds one scan round trip. The sidecar is local, so the
	// default is tight.
	Timeout time.Duration

	Logger *slog.Logger
}

// NewHTTPScanner creates a sidecar scanner client.
func NewHTTPScanner(cfg HTTPScannerConfig) (*HTTPScanner, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNoEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPScanner{
		endpoint:      cfg.Endpoint,
		targetPayload: cfg.TargetPayload,
		client:        httpc.NewClient(cfg.Timeout),
		logger:        logger.With("component", "scanner"),
	}, nil
}

// scanResponse is the sidecar's wire format: normalized coordinates,
// one marker per frame.
type scanResponse struct {
	Detected bool   `json:"detected"`
	Payload  string `json:"payload"`
	Region   struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"region"`
}

// Scan posts one frame to the decoder. Returns nil when no marker with
// the target payload is visible.
func (s *HTTPScanner) Scan(jpeg []byte) (*Marker, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(jpeg))
	if err != nil {
		return nil, WrapError(providerScanner, err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, WrapError(providerScanner, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("scan request failed with status %d", resp.StatusCode),
			Provider:   providerScanner,
		}
	}

	var decoded scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, WrapError(providerScanner, fmt.Errorf("decode response: %w", err))
	}

	if !decoded.Detected {
		return nil, nil
	}
	if s.targetPayload != "" && decoded.Payload != s.targetPayload {
		s.logger.Debug("ignoring foreign marker", "payload", decoded.Payload)
		return nil, nil
	}

	return &Marker{
		Payload: decoded.Payload,
		Region: gate.Rect{
			X:      decoded.Region.X,
			Y:      decoded.Region.Y,
			Width:  decoded.Region.Width,
			Height: decoded.Region.Height,
		},
	}, nil
}

// Close releases idle connections.
func (s *HTTPScanner) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

var _ Scanner = (*HTTPScanner)(nil)
