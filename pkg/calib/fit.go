package calib

import (
	"fmt"
	"math"
)

// Physical constants for the Nernst slope.
const (
	gasConstant = 8.31446261815324 // J/(mol*K)
	faraday     = 96485.33212      // C/mol
)

// NernstSlope returns the theoretical electrode sensitivity (V per pH unit)
// at the given temperature: (R*T/F)*ln(10). About 0.05916 V/pH at 25 C.
// Real electrodes age below the theoretical slope, so this is a starting
// point for calibration, not a substitute for it.
func NernstSlope(tempC float64) float64 {
	return gasConstant * (tempC + 273.15) / faraday * math.Ln10
}

// TwoPointFit derives NeutralVoltage and VoltsPerPH from two buffer readings:
// voltage v1 measured in a buffer of known ph1, and v2 in ph2. Both points
// are reproduced exactly by the resulting calibration.
func TwoPointFit(v1, ph1, v2, ph2 float64) (neutral, voltsPerPH float64, err error) {
	if ph1 == ph2 {
		return 0, 0, fmt.Errorf("%w: calibration points have equal pH %g", ErrInvalidParams, ph1)
	}

	voltsPerPH = (v1 - v2) / (ph2 - ph1)
	if voltsPerPH == 0 {
		return 0, 0, fmt.Errorf("%w: calibration points have equal voltage %g V", ErrInvalidParams, v1)
	}

	neutral = v1 + (ph1-7)*voltsPerPH
	return neutral, voltsPerPH, nil
}

// NeutralFromReading re-anchors the pH 7 intercept from a single reading of a
// buffer solution with known pH, keeping the slope unchanged. This is the
// one-point recalibration done against a neutral buffer before a session.
func NeutralFromReading(voltage, knownPH, voltsPerPH float64) float64 {
	return voltage + (knownPH-7)*voltsPerPH
}
