// Package session records per-frame gate state to a CSV file for
// offline analysis of a run.
package session

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"
	"time"
)

// header defines the CSV columns, one row per recorded frame.
var header = []string{
	"frame",
	"timestamp",
	"distance_cm",
	"marker_detected",
	"classifier_detected",
	"decision",
}

// Row is one recorded frame.
type Row struct {
	Frame              uint64
	Timestamp          time.Time
	DistanceCM         float64 // NaN when no rangefinder reading is available
	MarkerDetected     bool
	ClassifierDetected bool
	Decision           bool
}

// Recorder appends rows to a CSV session file. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
	rows int
}

// NewRecorder creates the session file and writes the header.
func NewRecorder(path string) (*Recorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create session file: %w", err)
	}

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("write session header: %w", err)
	}

	return &Recorder{file: file, w: w}, nil
}

// Record appends one frame row.
func (r *Recorder) Record(row Row) error {
	distance := ""
	if !math.IsNaN(row.DistanceCM) {
		distance = strconv.FormatFloat(row.DistanceCM, 'f', 1, 64)
	}

	record := []string{
		strconv.FormatUint(row.Frame, 10),
		row.Timestamp.UTC().Format(time.RFC3339Nano),
		distance,
		strconv.FormatBool(row.MarkerDetected),
		strconv.FormatBool(row.ClassifierDetected),
		strconv.FormatBool(row.Decision),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.w.Write(record); err != nil {
		return fmt.Errorf("write session row: %w", err)
	}
	r.rows++
	return nil
}

// Rows returns the number of recorded frames.
func (r *Recorder) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

// Close flushes buffered rows and closes the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.file.Close()
		return fmt.Errorf("flush session file: %w", err)
	}
	return r.file.Close()
}
