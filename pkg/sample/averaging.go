package sample

import (
	"log/slog"
	"time"

	"github.com/jcastillo/phmon/pkg/calib"
	"github.com/jcastillo/phmon/pkg/config"
	"github.com/jcastillo/phmon/pkg/probe"
)

// NewAveragingConverter creates a converter that averages up to windowSize
// consecutive RawSamples in the raw ADC domain before conversion. This
// reduces electrode noise without touching the calibration itself.
func NewAveragingConverter(params calib.Params, temp config.TemperatureConfig, windowSize, bufSize int) Converter {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan probe.RawSample) <-chan Reading {
		out := make(chan Reading, bufSize)

		go func() {
			defer close(out)

			var buffer []probe.RawSample
			ticker := time.NewTicker(100 * time.Millisecond) // Output rate
			defer ticker.Stop()

			for {
				select {
				case raw, ok := <-in:
					if !ok {
						// Input closed, flush any remaining samples
						if len(buffer) > 0 {
							avg := averageAndConvert(buffer, params, temp)
							select {
							case out <- avg:
							default:
							}
						}
						return
					}

					buffer = append(buffer, raw)
					if len(buffer) > windowSize {
						buffer = buffer[1:] // Remove oldest
					}

				case <-ticker.C:
					if len(buffer) > 0 {
						avg := averageAndConvert(buffer, params, temp)
						select {
						case out <- avg:
						default:
							slog.Warn("averaging converter output channel full")
						}
					}
				}
			}
		}()

		return out
	}
}

// averageAndConvert averages raw samples and converts the result.
// Uses the most recent sample's timestamp.
func averageAndConvert(samples []probe.RawSample, params calib.Params, temp config.TemperatureConfig) Reading {
	if len(samples) == 0 {
		return Reading{}
	}

	var sumPH, sumTemp uint32
	last := samples[len(samples)-1]

	for _, s := range samples {
		sumPH += uint32(s.PH)
		sumTemp += uint32(s.Temp)
	}

	n := float64(len(samples))
	avgPH := uint16((float64(sumPH) / n) + 0.5) // Round to nearest
	avgTemp := uint16((float64(sumTemp) / n) + 0.5)

	return convertSample(probe.RawSample{
		Timestamp: last.Timestamp,
		PH:        avgPH,
		Temp:      avgTemp,
	}, params, temp)
}
