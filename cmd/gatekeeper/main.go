// Command gatekeeper fuses a marker scanner and a cloud classifier into
// a single debounced "robot may move" signal, published over MQTT and
// served over HTTP/WebSocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robotmark/gatekeeper/internal/config"
	"github.com/robotmark/gatekeeper/internal/log"
	"github.com/robotmark/gatekeeper/internal/rangefinder"
	"github.com/robotmark/gatekeeper/pkg/detect"
	"github.com/robotmark/gatekeeper/pkg/gate"
	"github.com/robotmark/gatekeeper/pkg/pipeline"
	"github.com/robotmark/gatekeeper/pkg/publish"
	"github.com/robotmark/gatekeeper/pkg/session"
	"github.com/robotmark/gatekeeper/pkg/web"
)

type options struct {
	port          string
	cameraURL     string
	scannerURL    string
	broker        string
	clientID      string
	serialPort    string
	baudrate      int
	rangefinderOn bool
	sessionPath   string
	desktop       bool
	secondary     bool
	alpha         float64
	alphaSet      bool
	frameInterval time.Duration
	statusPeriod  time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.port, "port", config.Env("PORT", "8081"), "HTTP status server port")
	flag.StringVar(&opts.cameraURL, "camera-url", config.Env("CAMERA_URL", "http://localhost:8080/snapshot"), "camera snapshot URL")
	flag.StringVar(&opts.scannerURL, "scanner-url", config.Env("SCANNER_URL", "http://localhost:9001/scan"), "marker decoder sidecar URL")
	flag.StringVar(&opts.broker, "broker", config.Env("MQTT_BROKER", ""), "MQTT broker address (empty to disable publishing)")
	flag.StringVar(&opts.clientID, "client-id", "gatekeeper", "MQTT client ID")
	flag.StringVar(&opts.serialPort, "serial-port", config.Env("SERIAL_PORT", config.DefaultSerialPort), "rangefinder serial port")
	flag.IntVar(&opts.baudrate, "baudrate", config.EnvInt("SERIAL_BAUDRATE", config.DefaultSerialBaudrate), "rangefinder baudrate")
	flag.BoolVar(&opts.rangefinderOn, "rangefinder", config.EnvBool("RANGEFINDER", false), "enable the mmWave rangefinder")
	flag.StringVar(&opts.sessionPath, "session", "", "session CSV path (empty to disable recording)")
	flag.BoolVar(&opts.desktop, "desktop", false, "use the desktop persistence preset")
	flag.BoolVar(&opts.secondary, "secondary", config.EnvBool("CLASSIFIER_ENABLED", false), "start with the classifier channel enabled")
	flag.Float64Var(&opts.alpha, "alpha", 0, "smoothing alpha override")
	flag.DurationVar(&opts.frameInterval, "frame-interval", 33*time.Millisecond, "frame capture interval")
	flag.DurationVar(&opts.statusPeriod, "status-period", 500*time.Millisecond, "status broadcast period")
	level := flag.String("level", config.Env("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	flag.Parse()

	// Presence check so an explicit -alpha=0 reaches the gate.
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "alpha" {
			opts.alphaSet = true
		}
	})

	log.Init(*level)

	if err := run(opts); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	gateCfg := gate.DefaultConfig()
	if opts.desktop {
		gateCfg = gate.DesktopConfig()
	}
	if opts.alphaSet {
		gateCfg.SmoothingAlpha = opts.alpha
	}
	g, err := gate.New(gateCfg, log.L())
	if err != nil {
		return fmt.Errorf("init gate: %w", err)
	}
	g.SetSecondaryEnabled(opts.secondary)

	// The server is built first so process logs can tee into its
	// dashboard buffer; everything below logs through the tee.
	server := web.NewServer(opts.port, g, log.L())
	logger := slog.New(server.LogHandler(log.L().Handler()))
	mainLog := logger.With("component", "main")

	scanner, err := detect.NewHTTPScanner(detect.HTTPScannerConfig{
		Endpoint:      opts.scannerURL,
		TargetPayload: config.Env("MARKER_PAYLOAD", config.DefaultMarkerPayload),
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("init scanner: %w", err)
	}
	defer scanner.Close()

	// The classifier needs an API key; without one the process still
	// runs, it just cannot confirm through the secondary channel.
	var classifier detect.Classifier
	apiKey, err := config.RoboflowAPIKey()
	switch {
	case err != nil && opts.secondary:
		return fmt.Errorf("classifier channel enabled: %w", err)
	case err != nil:
		mainLog.Warn("classifier unavailable, secondary channel stays unconfirmed", "error", err)
	default:
		roboflow, err := detect.NewRoboflow(detect.RoboflowConfig{
			Endpoint: config.RoboflowEndpoint(
				config.Env("ROBOFLOW_URL", config.DefaultRoboflowURL),
				config.Env("ROBOFLOW_WORKSPACE", config.DefaultWorkspace),
				config.Env("ROBOFLOW_WORKFLOW", config.DefaultWorkflowID),
			),
			APIKey:      apiKey,
			TargetClass: config.Env("TARGET_CLASS", config.DefaultTargetClass),
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("init classifier: %w", err)
		}
		classifier = roboflow
		defer roboflow.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	// MQTT publishing is optional; without a broker the decision is
	// still observable over HTTP and WebSocket.
	var publisher publish.Publisher
	if opts.broker != "" {
		real, err := publish.NewRealPublisher(opts.broker, opts.clientID)
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		publisher = real
		defer publisher.Close()

		bridge := publish.NewBridge(g, publisher, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			bridge.Run(ctx)
		}()

		startup := publish.SystemEvent{Timestamp: time.Now(), Event: "STARTUP"}
		if err := publisher.PublishSystem(startup); err != nil {
			mainLog.Warn("failed to publish startup event", "error", err)
		}
	}

	// lastDistance holds the newest filtered rangefinder reading in
	// centimeters, or -1 before the first frame arrives.
	var lastDistance atomic.Int64
	lastDistance.Store(-1)
	if opts.rangefinderOn {
		monitor, err := rangefinder.Open(opts.serialPort, opts.baudrate, logger)
		if err != nil {
			return fmt.Errorf("init rangefinder: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := monitor.Run(ctx); err != nil {
				mainLog.Error("rangefinder stopped", "error", err)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range monitor.Readings() {
				lastDistance.Store(int64(d))
			}
		}()
	}

	var recorder *session.Recorder
	if opts.sessionPath != "" {
		recorder, err = session.NewRecorder(opts.sessionPath)
		if err != nil {
			return fmt.Errorf("init session recorder: %w", err)
		}
		defer recorder.Close()
		mainLog.Info("recording session", "path", opts.sessionPath)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Run(ctx); err != nil {
			mainLog.Error("status server stopped", "error", err)
		}
	}()

	source := pipeline.NewSnapshotSource(opts.cameraURL)
	pipe := pipeline.New(
		pipeline.Config{FrameInterval: opts.frameInterval},
		gateCfg, g, scanner, classifier, source, logger,
	)

	pipeErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		pipeErr <- pipe.Run(ctx)
	}()

	// Status ticker: broadcasts snapshots to websocket clients and, when
	// recording, appends one session row per tick.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(opts.statusPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap := g.Snapshot()
				server.PushStatus(snap)
				if recorder != nil {
					distance := math.NaN()
					if d := lastDistance.Load(); d >= 0 {
						distance = float64(d)
					}
					row := session.Row{
						Frame:              pipe.Frames(),
						Timestamp:          time.Now(),
						DistanceCM:         distance,
						MarkerDetected:     snap.Primary.Detected,
						ClassifierDetected: snap.Secondary.Detected,
						Decision:           snap.Decision,
					}
					if err := recorder.Record(row); err != nil {
						mainLog.Warn("failed to record session row", "error", err)
					}
				}
			}
		}
	}()

	mainLog.Info("gatekeeper started",
		"port", opts.port,
		"camera", opts.cameraURL,
		"persistence_threshold", gateCfg.PersistenceThreshold,
		"sample_interval", gateCfg.SampleInterval,
		"alpha", gateCfg.SmoothingAlpha,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case s := <-sigCh:
		mainLog.Info("shutting down", "signal", s.String())
		if publisher != nil {
			shutdown := publish.SystemEvent{
				Timestamp: time.Now(),
				Event:     "SHUTDOWN",
				Reason:    signalName(s),
			}
			if err := publisher.PublishSystem(shutdown); err != nil {
				mainLog.Warn("failed to publish shutdown event", "error", err)
			}
		}
	case err := <-pipeErr:
		runErr = err
	}

	cancel()
	wg.Wait()
	return runErr
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
