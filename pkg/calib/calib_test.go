package calib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParams_Valid(t *testing.T) {
	p, err := NewParams(3.3, 4096, 2.500, 0.152)
	require.NoError(t, err)
	assert.Equal(t, 3.3, p.ReferenceVoltage)
	assert.Equal(t, 4096, p.ResolutionSteps)
	assert.Equal(t, 2.500, p.NeutralVoltage)
	assert.Equal(t, 0.152, p.VoltsPerPH)
}

func TestNewParams_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		vref       float64
		steps      int
		neutral    float64
		voltsPerPH float64
	}{
		{
			name:       "zero resolution steps",
			vref:       3.3,
			steps:      0,
			neutral:    2.5,
			voltsPerPH: 0.152,
		},
		{
			name:       "negative resolution steps",
			vref:       3.3,
			steps:      -1024,
			neutral:    2.5,
			voltsPerPH: 0.152,
		},
		{
			name:       "zero reference voltage",
			vref:       0,
			steps:      4096,
			neutral:    2.5,
			voltsPerPH: 0.152,
		},
		{
			name:       "negative reference voltage",
			vref:       -3.3,
			steps:      4096,
			neutral:    2.5,
			voltsPerPH: 0.152,
		},
		{
			name:       "zero slope",
			vref:       3.3,
			steps:      4096,
			neutral:    2.5,
			voltsPerPH: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParams(tt.vref, tt.steps, tt.neutral, tt.voltsPerPH)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidParams)
			assert.Equal(t, Params{}, p, "no usable Params on error")
		})
	}
}

func TestVoltage(t *testing.T) {
	tests := []struct {
		name   string
		vref   float64
		steps  int
		sample uint16
		want   float64
	}{
		{
			name:   "zero sample",
			vref:   3.3,
			steps:  4096,
			sample: 0,
			want:   0.0,
		},
		{
			name:   "mid scale 10-bit",
			vref:   3.3,
			steps:  1024,
			sample: 512,
			want:   1.6504, // Approximately
		},
		{
			name:   "full scale 12-bit",
			vref:   3.3,
			steps:  4096,
			sample: 4095,
			want:   3.3, // Approximately (one LSB short)
		},
		{
			name:   "different reference",
			vref:   5.0,
			steps:  1024,
			sample: 512,
			want:   2.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParams(tt.vref, tt.steps, 2.5, 0.152)
			require.NoError(t, err)
			got := p.Voltage(tt.sample)
			assert.InDelta(t, tt.want, got, 0.001, "Voltage(%d) = %f, want %f", tt.sample, got, tt.want)
		})
	}
}

func TestVoltage_Monotonic(t *testing.T) {
	p, err := NewParams(3.3, 1024, 2.5, 0.152)
	require.NoError(t, err)

	prev := p.Voltage(0)
	assert.GreaterOrEqual(t, prev, 0.0)
	for s := uint16(1); s < 1024; s++ {
		v := p.Voltage(s)
		assert.GreaterOrEqual(t, v, prev, "voltage must be non-decreasing at sample %d", s)
		assert.LessOrEqual(t, v, 3.3)
		prev = v
	}
}

func TestPH(t *testing.T) {
	tests := []struct {
		name    string
		neutral float64
		slope   float64
		voltage float64
		want    float64
	}{
		{
			name:    "neutral voltage reads pH 7",
			neutral: 2.500,
			slope:   0.04,
			voltage: 2.500,
			want:    7.000,
		},
		{
			name:    "below neutral reads basic",
			neutral: 2.506,
			slope:   0.152,
			voltage: 2.0,
			want:    10.33, // Approximately
		},
		{
			name:    "above neutral reads acidic",
			neutral: 2.500,
			slope:   0.152,
			voltage: 2.956,
			want:    4.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParams(3.3, 4096, tt.neutral, tt.slope)
			require.NoError(t, err)
			got := p.PH(tt.voltage)
			assert.InDelta(t, tt.want, got, 0.005, "PH(%f) = %f, want %f", tt.voltage, got, tt.want)
		})
	}
}

func TestPH_MonotonicDecreasing(t *testing.T) {
	p, err := NewParams(3.3, 4096, 2.5, 0.152)
	require.NoError(t, err)

	prev := p.PH(0.0)
	for v := 0.1; v <= 3.3; v += 0.1 {
		ph := p.PH(v)
		assert.Less(t, ph, prev, "higher voltage must read lower pH at %f V", v)
		prev = ph
	}
}

func TestPH_RoundTrip(t *testing.T) {
	p, err := NewParams(3.3, 4096, 2.506, 0.152)
	require.NoError(t, err)

	for target := 0.0; target <= 14.0; target += 0.5 {
		voltage := p.NeutralVoltage - (target-7)*p.VoltsPerPH
		assert.InDelta(t, target, p.PH(voltage), 1e-6)
	}
}

func TestPH_NoClamping(t *testing.T) {
	p, err := NewParams(3.3, 4096, 2.5, 0.04)
	require.NoError(t, err)

	// A drifted electrode can produce readings outside 0-14; conversion must
	// preserve them so the drift is visible to the caller.
	assert.Greater(t, p.PH(0.0), 14.0)
	assert.Less(t, p.PH(3.3), 0.0)
}

func TestConvert(t *testing.T) {
	p, err := NewParams(3.3, 4096, 2.500, 0.152)
	require.NoError(t, err)

	r := p.Convert(3103) // 3103 * 3.3 / 4096 = 2.5002 V
	assert.InDelta(t, 2.500, r.Voltage, 0.001)
	assert.InDelta(t, 7.0, r.PH, 0.01)
	assert.InDelta(t, p.PH(r.Voltage), r.PH, 1e-12, "Convert must compose Voltage and PH exactly")
}

func TestLinearCorrection(t *testing.T) {
	tests := []struct {
		name   string
		raw    float64
		scale  float64
		offset float64
		want   float64
	}{
		{
			name:   "offset only",
			raw:    10,
			scale:  1.0,
			offset: -1.5,
			want:   8.5,
		},
		{
			name:   "identity",
			raw:    25.0,
			scale:  1.0,
			offset: 0.0,
			want:   25.0,
		},
		{
			name:   "gain and offset",
			raw:    2.0,
			scale:  1.5,
			offset: 0.25,
			want:   3.25,
		},
		{
			name:   "zero raw",
			raw:    0.0,
			scale:  2.0,
			offset: -0.5,
			want:   -0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LinearCorrection(tt.raw, tt.scale, tt.offset)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
