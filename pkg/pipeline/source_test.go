package pipeline

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSnapshotSourceFetchesFrame(t *testing.T) {
	frame := []byte{0xFF, 0xD8, 0xFF, 0xE0} // JPEG SOI marker
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(frame)
	}))
	defer server.Close()

	got, err := NewSnapshotSource(server.URL).CaptureJPEG()
	if err != nil {
		t.Fatalf("CaptureJPEG: %v", err)
	}
	if !bytes.Equal(got, frame) {
		t.Errorf("frame = %v, want %v", got, frame)
	}
}

func TestSnapshotSourceReportsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := NewSnapshotSource(server.URL).CaptureJPEG(); err == nil {
		t.Error("expected an error for a non-200 response")
	}
}
