package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jcastillo/phmon/pkg/calib"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	ADC         ADCConfig         `yaml:"adc"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Temperature TemperatureConfig `yaml:"temperature"`
	Measurement MeasurementConfig `yaml:"measurement"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// ADCConfig describes the probe MCU's analog-to-digital converter.
type ADCConfig struct {
	VRef            float64 `yaml:"vref"`             // Reference voltage (V)
	ResolutionSteps int     `yaml:"resolution_steps"` // 1024 for 10-bit, 4096 for 12-bit
}

// CalibrationConfig holds the electrode calibration. These values are per
// physical electrode and must come from an actual buffer calibration; the
// defaults are placeholders for a fresh glass electrode.
type CalibrationConfig struct {
	NeutralVoltage float64 `yaml:"neutral_voltage"` // Electrode voltage at pH 7 (V)
	VoltsPerPH     float64 `yaml:"volts_per_ph"`    // Electrode sensitivity (V/pH)
}

// TemperatureConfig is the linear correction applied to the secondary
// temperature channel.
type TemperatureConfig struct {
	Scale  float64 `yaml:"scale"`
	Offset float64 `yaml:"offset"` // Degrees C added after scaling
}

// MeasurementConfig contains monitoring parameters.
type MeasurementConfig struct {
	WindowSeconds   float64 `yaml:"window_seconds"`
	AverageSamples  int     `yaml:"average_samples"`   // Number of raw samples to average (0 = disabled, default)
	MaxExportPoints int     `yaml:"max_export_points"` // Decimate CSV exports down to this many rows (0 = keep all)
}

// MQTTConfig configures the optional reading publisher.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	DeviceID string `yaml:"device_id"`
}

// MockConfig contains simulated probe configuration.
type MockConfig struct {
	StartPH     float64       `yaml:"start_ph"`     // Baseline simulated pH
	DriftPH     float64       `yaml:"drift_ph"`     // Drift amplitude (pH units)
	DriftPeriod time.Duration `yaml:"drift_period"` // Full drift cycle duration
	NoiseLevel  float64       `yaml:"noise_level"`  // Noise level (V)
	SampleRate  time.Duration `yaml:"sample_rate"`  // Sample rate
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 115200,
		},
		ADC: ADCConfig{
			VRef:            3.3,
			ResolutionSteps: 4096,
		},
		Calibration: CalibrationConfig{
			NeutralVoltage: 2.500,
			VoltsPerPH:     0.152,
		},
		Temperature: TemperatureConfig{
			Scale:  1.0,
			Offset: -1.5,
		},
		Measurement: MeasurementConfig{
			WindowSeconds:   60,
			AverageSamples:  0, // No averaging by default
			MaxExportPoints: 2000,
		},
		MQTT: MQTTConfig{
			Enabled:  false,
			Broker:   "localhost",
			Port:     1883,
			ClientID: "phmon",
			DeviceID: "probe0",
		},
		Mock: MockConfig{
			StartPH:     7.0,
			DriftPH:     1.5,
			DriftPeriod: 40 * time.Second,
			NoiseLevel:  0.002,
			SampleRate:  200 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// sections are missing, it uses default values. The result is validated:
// a calibration that would make the conversion undefined aborts loading
// instead of silently producing plausible-looking readings.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Params builds validated conversion parameters from the configuration.
func (c *Config) Params() (calib.Params, error) {
	return calib.NewParams(
		c.ADC.VRef,
		c.ADC.ResolutionSteps,
		c.Calibration.NeutralVoltage,
		c.Calibration.VoltsPerPH,
	)
}

// Validate rejects configurations that make the conversion undefined.
func (c *Config) Validate() error {
	if _, err := c.Params(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	return nil
}

// ensureDefaults fills in defaults for sections that are entirely absent.
// An explicitly misconfigured value (e.g. volts_per_ph: 0 next to a set
// neutral_voltage) is left alone so Validate fails fast on it.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.ADC == (ADCConfig{}) {
		c.ADC = def.ADC
	}

	if c.Calibration == (CalibrationConfig{}) {
		c.Calibration = def.Calibration
	}

	if c.Temperature == (TemperatureConfig{}) {
		c.Temperature = def.Temperature
	}

	if c.Measurement.WindowSeconds == 0 {
		c.Measurement.WindowSeconds = def.Measurement.WindowSeconds
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = def.MQTT.Port
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.DeviceID == "" {
		c.MQTT.DeviceID = def.MQTT.DeviceID
	}

	if c.Mock.StartPH == 0 {
		c.Mock.StartPH = def.Mock.StartPH
	}
	if c.Mock.DriftPeriod == 0 {
		c.Mock.DriftPeriod = def.Mock.DriftPeriod
	}
	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
}
