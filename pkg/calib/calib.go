// Package calib converts raw ADC samples into electrode voltage and pH using
// a two-point linear calibration. All operations are pure functions of their
// inputs; Params is read-only after construction and safe to share between
// goroutines without locking.
package calib

import (
	"errors"
	"fmt"
)

// ErrInvalidParams indicates calibration parameters that would make the
// conversion undefined.
var ErrInvalidParams = errors.New("invalid calibration parameters")

// Params holds the calibration for one probe. Construct with NewParams so
// invalid values are rejected up front; conversion itself never fails.
type Params struct {
	ReferenceVoltage float64 // ADC reference voltage (V)
	ResolutionSteps  int     // ADC quantization steps (1024 for 10-bit, 4096 for 12-bit)
	NeutralVoltage   float64 // electrode voltage at pH 7 (V)
	VoltsPerPH       float64 // electrode sensitivity (V per pH unit)
}

// Reading is a converted measurement pair derived from one raw sample.
type Reading struct {
	Voltage float64 // electrode voltage (V)
	PH      float64
}

// NewParams validates and returns calibration parameters.
// A zero-width quantization or a zero slope makes the conversion meaningless,
// so these abort configuration instead of surfacing per sample.
func NewParams(vref float64, steps int, neutral, voltsPerPH float64) (Params, error) {
	if steps <= 0 {
		return Params{}, fmt.Errorf("%w: resolution steps must be positive, got %d", ErrInvalidParams, steps)
	}
	if vref <= 0 {
		return Params{}, fmt.Errorf("%w: reference voltage must be positive, got %g", ErrInvalidParams, vref)
	}
	if voltsPerPH == 0 {
		return Params{}, fmt.Errorf("%w: volts per pH unit must be nonzero", ErrInvalidParams)
	}

	return Params{
		ReferenceVoltage: vref,
		ResolutionSteps:  steps,
		NeutralVoltage:   neutral,
		VoltsPerPH:       voltsPerPH,
	}, nil
}

// Voltage converts a raw ADC sample to volts.
// The formula is linear and defined for any sample value; readings beyond the
// ADC resolution indicate saturation upstream and are converted as-is. Clamp
// at the acquisition boundary if out-of-range cannot occur physically.
func (p Params) Voltage(sample uint16) float64 {
	return float64(sample) * p.ReferenceVoltage / float64(p.ResolutionSteps)
}

// PH maps an electrode voltage to a pH value.
// The result is not clamped to 0-14: values outside the physical range are
// the signal a caller uses to detect calibration drift or a saturated input.
func (p Params) PH(voltage float64) float64 {
	return 7 + (p.NeutralVoltage-voltage)/p.VoltsPerPH
}

// Convert converts one raw ADC sample to a Reading.
func (p Params) Convert(sample uint16) Reading {
	v := p.Voltage(sample)
	return Reading{Voltage: v, PH: p.PH(v)}
}

// LinearCorrection applies a one-point gain/offset correction to a secondary
// channel value, e.g. an onboard temperature sensor.
func LinearCorrection(raw, scale, offset float64) float64 {
	return scale*raw + offset
}
