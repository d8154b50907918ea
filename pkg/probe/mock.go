package probe

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jcastillo/phmon/pkg/calib"
	"github.com/jcastillo/phmon/pkg/config"
)

// Mock simulates a pH probe for testing and development. It synthesizes raw
// ADC samples by running a drifting pH value backwards through the
// calibration, so the full conversion pipeline is exercised end to end.
type Mock struct {
	cfg    *config.MockConfig
	params calib.Params

	samples   chan RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	startTime time.Time
}

// NewMock creates a new mocked probe instance.
func NewMock(cfg *config.MockConfig, params calib.Params) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			StartPH:     7.0,
			DriftPH:     1.5,
			DriftPeriod: 40 * time.Second,
			NoiseLevel:  0.002,
			SampleRate:  200 * time.Millisecond,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       cfg,
		params:    params,
		samples:   make(chan RawSample, DefaultBufferSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Connect simulates connecting to the probe.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()

	go m.generateSamples()

	return nil
}

// Close stops the mocked probe.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false
	close(m.samples)

	return nil
}

// Samples returns the channel for reading samples.
func (m *Mock) Samples() <-chan RawSample {
	return m.samples
}

// IsConnected returns whether the probe is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// generateSamples generates simulated samples at the configured rate.
func (m *Mock) generateSamples() {
	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			sample := m.generateSample()
			select {
			case m.samples <- sample:
			case <-m.ctx.Done():
				return
			default:
				// Channel full, skip
			}
		}
	}
}

// generateSample synthesizes a single raw sample.
func (m *Mock) generateSample() RawSample {
	now := time.Now()
	elapsed := now.Sub(m.startTime)

	// Slow sinusoidal pH drift around the baseline
	phase := 2 * math.Pi * elapsed.Seconds() / m.cfg.DriftPeriod.Seconds()
	ph := m.cfg.StartPH + m.cfg.DriftPH*math.Sin(phase)

	// Electrode voltage for that pH, plus deterministic pseudo-noise
	voltage := m.params.NeutralVoltage - (ph-7)*m.params.VoltsPerPH
	noise := (math.Sin(float64(elapsed.Nanoseconds())*0.001) +
		math.Cos(float64(elapsed.Nanoseconds())*0.0013)) *
		m.cfg.NoiseLevel * 0.5
	voltage += noise

	// Mouth temperature wanders slightly around 36.5 C
	tempC := 36.5 + 0.3*math.Sin(phase*0.37)
	tempVoltage := TempSensorVoltage(tempC)

	return RawSample{
		Timestamp: now,
		PH:        m.toADC(voltage),
		Temp:      m.toADC(tempVoltage),
	}
}

// toADC quantizes a voltage to a raw count, clamped to the ADC range.
func (m *Mock) toADC(voltage float64) uint16 {
	val := (voltage / m.params.ReferenceVoltage) * float64(m.params.ResolutionSteps)
	if val < 0 {
		val = 0
	} else if val > float64(m.params.ResolutionSteps-1) {
		val = float64(m.params.ResolutionSteps - 1)
	}
	return uint16(val)
}
