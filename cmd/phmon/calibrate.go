package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jcastillo/phmon/pkg/calib"
	"github.com/jcastillo/phmon/pkg/config"
	"github.com/jcastillo/phmon/pkg/probe"
)

// calibrateSamples is the number of raw samples averaged per buffer reading.
const calibrateSamples = 100

// runCalibrate performs a two-point buffer calibration: it averages the probe
// voltage in each buffer solution, fits the electrode parameters, and writes
// them back to the configuration file.
func runCalibrate(ctx context.Context, cfg *config.Config, useMock bool, configPath string, ph1, ph2 float64) error {
	var dev probe.Device
	if useMock {
		params, err := cfg.Params()
		if err != nil {
			return err
		}
		dev = probe.NewMock(&cfg.Mock, params)
	} else {
		dev = probe.New(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.ADC.ResolutionSteps, probe.DefaultBufferSize)
	}

	if err := dev.Connect(); err != nil {
		return fmt.Errorf("failed to connect probe: %w", err)
	}
	defer dev.Close()

	in := bufio.NewScanner(os.Stdin)

	v1, err := captureBuffer(ctx, dev, cfg, in, ph1)
	if err != nil {
		return err
	}
	v2, err := captureBuffer(ctx, dev, cfg, in, ph2)
	if err != nil {
		return err
	}

	if err := applyCalibration(cfg, v1, ph1, v2, ph2); err != nil {
		return err
	}
	if err := cfg.Save(configPath); err != nil {
		return err
	}

	slog.Info("calibration saved", "path", configPath,
		"neutral_voltage", fmt.Sprintf("%.4f", cfg.Calibration.NeutralVoltage),
		"volts_per_ph", fmt.Sprintf("%.4f", cfg.Calibration.VoltsPerPH))
	return nil
}

// captureBuffer waits for the operator to settle the probe in a buffer
// solution, then averages one voltage reading out of the sample stream.
func captureBuffer(ctx context.Context, dev probe.Device, cfg *config.Config, in *bufio.Scanner, ph float64) (float64, error) {
	fmt.Printf("Rinse the probe, place it in the pH %.2f buffer, and press Enter.\n", ph)
	if !in.Scan() {
		return 0, errors.New("calibration aborted")
	}

	slog.Info("capturing buffer reading", "ph", ph, "samples", calibrateSamples)
	v, err := captureVoltage(ctx, dev.Samples(), cfg.ADC.VRef, cfg.ADC.ResolutionSteps, calibrateSamples)
	if err != nil {
		return 0, err
	}
	slog.Info("buffer reading captured", "ph", ph, "voltage_v", fmt.Sprintf("%.4f", v))
	return v, nil
}

// captureVoltage averages n raw pH counts from the sample stream and converts
// the mean to a voltage.
func captureVoltage(ctx context.Context, samples <-chan probe.RawSample, vref float64, steps, n int) (float64, error) {
	var sum uint64
	for count := 0; count < n; count++ {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case s, ok := <-samples:
			if !ok {
				return 0, errors.New("probe stream closed during calibration")
			}
			sum += uint64(s.PH)
		}
	}

	avg := float64(sum) / float64(n)
	return avg * vref / float64(steps), nil
}

// applyCalibration fits the electrode parameters from two buffer readings and
// stores them in the configuration.
func applyCalibration(cfg *config.Config, v1, ph1, v2, ph2 float64) error {
	neutral, voltsPerPH, err := calib.TwoPointFit(v1, ph1, v2, ph2)
	if err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}
	cfg.Calibration.NeutralVoltage = neutral
	cfg.Calibration.VoltsPerPH = voltsPerPH
	return nil
}
