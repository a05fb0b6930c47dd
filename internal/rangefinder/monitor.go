// Package rangefinder reads distance reports from an mmWave radar over
// serial and publishes a spike-filtered distance stream.
package rangefinder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.bug.st/serial"
)

// windowSize is the sliding-window length for the minimum filter.
const windowSize = 5

// Monitor owns the serial port and the read loop.
type Monitor struct {
	port     io.ReadCloser
	readings chan int
	window   *minWindow
	logger   *slog.Logger
}

// Open opens the radar's serial port and returns a monitor ready to run.
func Open(portName string, baudrate int, logger *slog.Logger) (*Monitor, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}

	return newMonitor(port, logger), nil
}

// newMonitor wires a monitor over any byte stream; tests feed it
// synthetic frames.
func newMonitor(port io.ReadCloser, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		port:     port,
		readings: make(chan int, 16),
		window:   newMinWindow(windowSize),
		logger:   logger.With("component", "rangefinder"),
	}
}

// Readings returns the filtered distance stream, in centimeters.
func (m *Monitor) Readings() <-chan int {
	return m.readings
}

// Run reads frames until the context is canceled or the port fails. The
// readings channel is closed on return.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.readings)
	defer m.port.Close()

	// The scanner blocks inside port.Read with a silent radar; closing
	// the port is the only way to unblock it on cancellation.
	stop := context.AfterFunc(ctx, func() { m.port.Close() })
	defer stop()

	scan := bufio.NewScanner(m.port)
	scan.Split(splitFrames)

	for {
		if !scan.Scan() {
			if ctx.Err() != nil {
				return nil
			}
			return scan.Err()
		}

		reading, err := parseBasicFrame(scan.Bytes())
		if err != nil {
			// Partial frames are routine on startup; skip them.
			m.logger.Debug("skipping unparseable frame", "error", err)
			continue
		}

		filtered := m.window.Push(reading.Distance)
		select {
		case m.readings <- filtered:
		case <-ctx.Done():
			return nil
		}
	}
}

// Close closes the serial port, unblocking a running monitor.
func (m *Monitor) Close() error {
	return m.port.Close()
}
