package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/robotmark/gatekeeper/internal/httpc"
)

const providerRoboflow = "roboflow"

// Roboflow is a Classifier backed by a Roboflow serverless workflow.
type Roboflow struct {
	endpoint    string
	apiKey      string
	targetClass string
	http        *http.Client
	logger      *slog.Logger
}

// RoboflowConfig holds the Roboflow client configuration.
type RoboflowConfig struct {
	// Endpoint is the full workflow URL,
	// e.g. https://serverless.roboflow.com/<workspace>/workflows/<id>.
	Endpoint string

	// APIKey authenticates the workflow call.
	APIKey string

	// TargetClass is the object class treated as the robot body.
	TargetClass string

	// Timeout bounds a single request.
	Timeout time.Duration

	// Logger for request diagnostics.
	Logger *slog.Logger
}

// NewRoboflow creates a classifier client for the configured workflow.
func NewRoboflow(cfg RoboflowConfig) (*Roboflow, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNoEndpoint
	}
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Roboflow{
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		targetClass: cfg.TargetClass,
		http:        httpc.NewClient(timeout),
		logger:      logger.With("component", "detect.roboflow"),
	}, nil
}

// workflowRequest is the serverless workflow payload.
type workflowRequest struct {
	APIKey string         `json:"api_key"`
	Inputs workflowInputs `json:"inputs"`
}

type workflowInputs struct {
	Image workflowImage `json:"image"`
}

type workflowImage struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// workflowResponse mirrors the workflow output envelope: a list of
// outputs, each carrying a nested prediction set.
type workflowResponse struct {
	Outputs []struct {
		Predictions struct {
			Predictions []struct {
				Class      string  `json:"class"`
				Confidence float64 `json:"confidence"`
				X          float64 `json:"x"`
				Y          float64 `json:"y"`
				Width      float64 `json:"width"`
				Height     float64 `json:"height"`
			} `json:"predictions"`
			Image struct {
				Width  int `json:"width"`
				Height int `json:"height"`
			} `json:"image"`
		} `json:"predictions"`
	} `json:"outputs"`
}

// Classify sends one JPEG frame to the workflow and returns the best
// detection of the target class.
func (r *Roboflow) Classify(ctx context.Context, jpeg []byte) (Result, error) {
	payload := workflowRequest{
		APIKey: r.apiKey,
		Inputs: workflowInputs{
			Image: workflowImage{
				Type:  "base64",
				Value: base64.StdEncoding.EncodeToString(jpeg),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, WrapError(providerRoboflow, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, WrapError(providerRoboflow, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.http.Do(req)
	if err != nil {
		return Result{}, WrapError(providerRoboflow, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, r.parseError(resp)
	}

	var decoded workflowResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, WrapError(providerRoboflow, fmt.Errorf("decode response: %w", err))
	}

	result := r.toResult(decoded)
	if result.Detected {
		d := result.Detection
		r.logger.Debug("classification hit",
			"class", d.Class,
			"confidence", d.Confidence,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
	return result, nil
}

// toResult extracts the best target-class detection from the workflow
// envelope.
func (r *Roboflow) toResult(resp workflowResponse) Result {
	if len(resp.Outputs) == 0 {
		return Result{}
	}

	preds := resp.Outputs[0].Predictions
	dets := make([]Detection, 0, len(preds.Predictions))
	for _, p := range preds.Predictions {
		dets = append(dets, Detection{
			Class:      p.Class,
			Confidence: p.Confidence,
			X:          p.X,
			Y:          p.Y,
			Width:      p.Width,
			Height:     p.Height,
		})
	}

	best := SelectBest(dets, r.targetClass)
	if best == nil {
		return Result{
			ImageWidth:  preds.Image.Width,
			ImageHeight: preds.Image.Height,
		}
	}
	return Result{
		Detected:    true,
		Detection:   best,
		ImageWidth:  preds.Image.Width,
		ImageHeight: preds.Image.Height,
	}
}

// parseError reads and parses an error response body.
func (r *Roboflow) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Message != "" {
			message = errResp.Message
		} else if errResp.Error != "" {
			message = errResp.Error
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerRoboflow,
	}
}

// Close releases idle connections.
func (r *Roboflow) Close() error {
	r.http.CloseIdleConnections()
	return nil
}

// Verify Roboflow implements Classifier at compile time.
var _ Classifier = (*Roboflow)(nil)
