package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/jcastillo/phmon/pkg/calib"
	"github.com/jcastillo/phmon/pkg/config"
	"github.com/jcastillo/phmon/pkg/monitor"
	"github.com/jcastillo/phmon/pkg/probe"
	"github.com/jcastillo/phmon/pkg/publish"
	"github.com/jcastillo/phmon/pkg/sample"
)

func main() {
	var (
		portFlag      = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag    = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag      = flag.Bool("mock", false, "Use a simulated probe instead of a serial port")
		averageFlag   = flag.Int("average-samples", -1, "Number of raw samples to average (0 = disabled, overrides config)")
		outFlag       = flag.String("out", "", "Write the session window to this CSV file on exit")
		listFlag      = flag.Bool("list-ports", false, "List available serial ports and exit")
		calibrateFlag = flag.Bool("calibrate", false, "Run a two-point buffer calibration and save it to the config file")
		ph1Flag       = flag.Float64("ph1", 7.0, "pH of the first calibration buffer")
		ph2Flag       = flag.Float64("ph2", 4.0, "pH of the second calibration buffer")
		debugFlag     = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	slog.SetDefault(newLogger(*debugFlag))

	if *listFlag {
		ports, err := probe.Ports()
		if err != nil {
			slog.Error("failed to list serial ports", "error", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p.Name)
		}
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Override from command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *averageFlag >= 0 {
		cfg.Measurement.AverageSamples = *averageFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *calibrateFlag {
		if err := runCalibrate(ctx, cfg, *mockFlag, *configFlag, *ph1Flag, *ph2Flag); err != nil {
			slog.Error("calibration failed", "error", err)
			os.Exit(1)
		}
		return
	}

	params, err := cfg.Params()
	if err != nil {
		slog.Error("invalid calibration", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, params, *mockFlag, *outFlag); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})
	return slog.New(h)
}

func run(ctx context.Context, cfg *config.Config, params calib.Params, useMock bool, outPath string) error {
	var dev probe.Device
	if useMock {
		dev = probe.NewMock(&cfg.Mock, params)
	} else {
		dev = probe.New(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.ADC.ResolutionSteps, probe.DefaultBufferSize)
	}

	if err := dev.Connect(); err != nil {
		return fmt.Errorf("failed to connect probe: %w", err)
	}
	defer dev.Close()
	slog.Info("probe connected", "port", cfg.Serial.Port, "mock", useMock,
		"neutral_voltage", params.NeutralVoltage, "volts_per_ph", params.VoltsPerPH)

	// Tee raw samples into the latest-sample cell so the status loop can
	// read-and-convert the newest one without touching the pipeline.
	var latest probe.Latest
	raw := make(chan probe.RawSample, probe.DefaultBufferSize)
	go func() {
		defer close(raw)
		for s := range dev.Samples() {
			latest.Store(s)
			select {
			case raw <- s:
			default:
				slog.Warn("raw channel full, dropping sample")
			}
		}
	}()

	var conv sample.Converter
	if cfg.Measurement.AverageSamples > 0 {
		conv = sample.NewAveragingConverter(params, cfg.Temperature, cfg.Measurement.AverageSamples, probe.DefaultBufferSize)
	} else {
		conv = sample.NewConverter(params, cfg.Temperature, probe.DefaultBufferSize)
	}
	readings := conv(raw)

	mon := monitor.New(cfg)

	if cfg.MQTT.Enabled {
		pub := publish.NewClient(cfg.MQTT, slog.Default())
		if err := pub.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect mqtt broker: %w", err)
		}
		defer pub.Disconnect()

		mon.OnUpdate(func(window []sample.Reading, _ monitor.Stats) {
			newest := window[len(window)-1]
			if err := pub.PublishReading(newest); err != nil {
				slog.Warn("failed to publish reading", "error", err)
			}
		})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		mon.ProcessReadings(readings)
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			dev.Close()
			<-done
			if outPath != "" {
				if err := dumpCSV(mon, outPath); err != nil {
					return err
				}
				slog.Info("session written", "path", outPath)
			}
			return nil

		case <-ticker.C:
			s, ok := latest.Load()
			if !ok {
				slog.Warn("no samples received yet")
				continue
			}
			r := params.Convert(s.PH)
			stats := mon.Stats()
			slog.Info("reading",
				"voltage_v", fmt.Sprintf("%.4f", r.Voltage),
				"ph", fmt.Sprintf("%.3f", r.PH),
				"window", stats.Count,
				"mean_ph", fmt.Sprintf("%.3f", stats.MeanPH),
				"out_of_range", stats.OutOfRange,
			)
		}
	}
}

func dumpCSV(mon *monitor.Monitor, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := mon.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
