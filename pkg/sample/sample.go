package sample

import (
	"log/slog"
	"time"

	"github.com/jcastillo/phmon/pkg/calib"
	"github.com/jcastillo/phmon/pkg/config"
	"github.com/jcastillo/phmon/pkg/probe"
)

// Reading represents a converted measurement with physical values.
type Reading struct {
	Timestamp time.Time
	Voltage   float64 // Electrode voltage (V)
	PH        float64
	TempC     float64 // Corrected temperature (C)
}

// Converter is a function type that converts a RawSample channel to a Reading channel.
type Converter func(in <-chan probe.RawSample) <-chan Reading

// NewConverter creates a converter that transforms RawSamples to Readings
// using the given calibration and temperature correction.
func NewConverter(params calib.Params, temp config.TemperatureConfig, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan probe.RawSample) <-chan Reading {
		out := make(chan Reading, bufSize)

		go func() {
			defer close(out)

			for raw := range in {
				reading := convertSample(raw, params, temp)

				select {
				case out <- reading:
				case <-time.After(time.Second):
					slog.Warn("converter output channel full, dropping reading")
				}
			}
		}()

		return out
	}
}

// convertSample converts one RawSample to a Reading. The raw sample is taken
// by value, so conversion never races with the acquirer updating shared state.
func convertSample(raw probe.RawSample, params calib.Params, temp config.TemperatureConfig) Reading {
	r := params.Convert(raw.PH)

	tempV := params.Voltage(raw.Temp)
	tempC := calib.LinearCorrection(probe.TempSensorCelsius(tempV), temp.Scale, temp.Offset)

	return Reading{
		Timestamp: raw.Timestamp,
		Voltage:   r.Voltage,
		PH:        r.PH,
		TempC:     tempC,
	}
}
