package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcastillo/phmon/pkg/calib"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 3.3, cfg.ADC.VRef)
	assert.Equal(t, 4096, cfg.ADC.ResolutionSteps)
	assert.Equal(t, 2.500, cfg.Calibration.NeutralVoltage)
	assert.Equal(t, 0.152, cfg.Calibration.VoltsPerPH)
	assert.Equal(t, 1.0, cfg.Temperature.Scale)
	assert.Equal(t, -1.5, cfg.Temperature.Offset)
	assert.Equal(t, float64(60), cfg.Measurement.WindowSeconds)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.Mock.SampleRate)

	require.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 9600

adc:
  vref: 3.3
  resolution_steps: 1024

calibration:
  neutral_voltage: 2.506
  volts_per_ph: 0.04

temperature:
  scale: 1.0
  offset: -1.5

measurement:
  window_seconds: 30
  average_samples: 5

mqtt:
  enabled: true
  broker: "broker.local"
  port: 1884
  client_id: "phmon-lab"
  device_id: "probe1"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 1024, cfg.ADC.ResolutionSteps)
	assert.Equal(t, 2.506, cfg.Calibration.NeutralVoltage)
	assert.Equal(t, 0.04, cfg.Calibration.VoltsPerPH)
	assert.Equal(t, float64(30), cfg.Measurement.WindowSeconds)
	assert.Equal(t, 5, cfg.Measurement.AverageSamples)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "broker.local", cfg.MQTT.Broker)
	assert.Equal(t, 1884, cfg.MQTT.Port)
	assert.Equal(t, "probe1", cfg.MQTT.DeviceID)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing sections
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 4096, cfg.ADC.ResolutionSteps)              // default
	assert.Equal(t, 0.152, cfg.Calibration.VoltsPerPH)          // default
	assert.Equal(t, float64(60), cfg.Measurement.WindowSeconds) // default
}

func TestLoad_BrokenCalibrationFailsFast(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	// A zero slope next to a set neutral voltage is a misconfiguration, not a
	// missing section; it must abort loading, never fall back to defaults.
	yamlContent := `
calibration:
  neutral_voltage: 2.5
  volts_per_ph: 0
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.Error(t, err)
	assert.ErrorIs(t, err, calib.ErrInvalidParams)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.ADC.ResolutionSteps = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, calib.ErrInvalidParams)

	cfg = Default()
	cfg.Calibration.VoltsPerPH = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, calib.ErrInvalidParams)
}

func TestParams(t *testing.T) {
	cfg := Default()
	params, err := cfg.Params()
	require.NoError(t, err)

	assert.Equal(t, cfg.ADC.VRef, params.ReferenceVoltage)
	assert.Equal(t, cfg.ADC.ResolutionSteps, params.ResolutionSteps)
	assert.Equal(t, cfg.Calibration.NeutralVoltage, params.NeutralVoltage)
	assert.Equal(t, cfg.Calibration.VoltsPerPH, params.VoltsPerPH)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Measurement.WindowSeconds = 15

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, float64(15), loaded.Measurement.WindowSeconds)
}
