package pipeline

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/robotmark/gatekeeper/internal/httpc"
)

// SnapshotSource pulls JPEG frames from a camera's HTTP snapshot
// endpoint, the common interface of IP cameras and capture sidecars.
type SnapshotSource struct {
	url    string
	client *http.Client
}

// NewSnapshotSource creates a source for the given snapshot URL.
func NewSnapshotSource(url string) *SnapshotSource {
	return &SnapshotSource{
		url:    url,
		client: httpc.NewClient(5 * time.Second),
	}
}

// CaptureJPEG fetches one frame.
func (s *SnapshotSource) CaptureJPEG() ([]byte, error) {
	resp, err := s.client.Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot request failed with status %d", resp.StatusCode)
	}

	frame, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return frame, nil
}

var _ FrameSource = (*SnapshotSource)(nil)
