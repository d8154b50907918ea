// Package monitor maintains a sliding time window of converted readings and
// derives session statistics from it.
package monitor

import (
	"sync"
	"time"

	"github.com/jcastillo/phmon/pkg/config"
	"github.com/jcastillo/phmon/pkg/sample"
)

// Stats summarizes the readings currently inside the window.
type Stats struct {
	Count       int
	MinPH       float64
	MaxPH       float64
	MeanPH      float64
	MinVoltage  float64
	MaxVoltage  float64
	MeanVoltage float64
	OutOfRange  int // Readings outside pH 0-14 (calibration drift or saturation)
}

// Monitor holds a FIFO buffer of readings, evicted by timestamp rather than
// count. The buffer is ordered oldest first, newest last.
type Monitor struct {
	samples []sample.Reading

	mu sync.RWMutex

	// Callbacks receive a copy of the current window directly
	callbacks []func(readings []sample.Reading, stats Stats)
	cbMu      sync.RWMutex

	windowDuration  time.Duration
	maxExportPoints int

	// Set when the input channel closes, prevents further callbacks
	shutdown bool
}

// New creates a new Monitor instance.
func New(cfg *config.Config) *Monitor {
	return &Monitor{
		samples:         make([]sample.Reading, 0),
		callbacks:       make([]func(readings []sample.Reading, stats Stats), 0),
		windowDuration:  time.Duration(cfg.Measurement.WindowSeconds * float64(time.Second)),
		maxExportPoints: cfg.Measurement.MaxExportPoints,
	}
}

// ProcessReadings consumes readings from the input channel until it closes.
// When the input channel closes, it sets the shutdown flag to prevent further
// callbacks.
func (m *Monitor) ProcessReadings(input <-chan sample.Reading) {
	for r := range input {
		m.processReading(r)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// processReading appends a reading, evicts readings outside the time window,
// and notifies callbacks.
func (m *Monitor) processReading(r sample.Reading) {
	m.mu.Lock()

	m.samples = append(m.samples, r)

	// Remove readings outside the time window (based on timestamp, not count)
	cutoffTime := r.Timestamp.Add(-m.windowDuration)
	cutoffIndex := 0
	for i, s := range m.samples {
		if s.Timestamp.After(cutoffTime) {
			cutoffIndex = i
			break
		}
	}
	if cutoffIndex > 0 {
		m.samples = m.samples[cutoffIndex:]
	}

	shouldNotify := !m.shutdown
	readings := make([]sample.Reading, len(m.samples))
	copy(readings, m.samples)
	stats := computeStats(readings)

	m.mu.Unlock()

	if shouldNotify {
		m.notifyCallbacks(readings, stats)
	}
}

// Readings returns a copy of the current window, oldest first.
func (m *Monitor) Readings() []sample.Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]sample.Reading, len(m.samples))
	copy(result, m.samples)
	return result
}

// Stats returns statistics over the current window.
func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return computeStats(m.samples)
}

// OnUpdate registers a callback invoked after each processed reading with a
// copy of the window and its statistics. Callbacks should return quickly.
func (m *Monitor) OnUpdate(callback func(readings []sample.Reading, stats Stats)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown resets the shutdown flag, allowing callbacks to fire again.
// Call before starting a new measurement session on the same monitor.
func (m *Monitor) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

func (m *Monitor) notifyCallbacks(readings []sample.Reading, stats Stats) {
	m.cbMu.RLock()
	callbacks := make([]func(readings []sample.Reading, stats Stats), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(readings, stats)
		}
	}
}

// computeStats derives window statistics. Out-of-range counting deliberately
// uses the unclamped pH values: conversion preserves drifted readings and the
// monitor is where they become visible.
func computeStats(readings []sample.Reading) Stats {
	if len(readings) == 0 {
		return Stats{}
	}

	s := Stats{
		Count:      len(readings),
		MinPH:      readings[0].PH,
		MaxPH:      readings[0].PH,
		MinVoltage: readings[0].Voltage,
		MaxVoltage: readings[0].Voltage,
	}

	var sumPH, sumVoltage float64
	for _, r := range readings {
		if r.PH < s.MinPH {
			s.MinPH = r.PH
		}
		if r.PH > s.MaxPH {
			s.MaxPH = r.PH
		}
		if r.Voltage < s.MinVoltage {
			s.MinVoltage = r.Voltage
		}
		if r.Voltage > s.MaxVoltage {
			s.MaxVoltage = r.Voltage
		}
		if r.PH < 0 || r.PH > 14 {
			s.OutOfRange++
		}
		sumPH += r.PH
		sumVoltage += r.Voltage
	}

	n := float64(len(readings))
	s.MeanPH = sumPH / n
	s.MeanVoltage = sumVoltage / n
	return s
}
