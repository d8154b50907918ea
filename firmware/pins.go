//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 1  // ADC read interval in milliseconds (same for both channels)
	NUM_SAMPLES        = 50 // Number of samples to average per output line

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// ADC pins
	PIN_PH_ADC   = machine.A0 // pH electrode amplifier output
	PIN_TEMP_ADC = machine.A1 // Temperature sensor channel

	// Serial configuration
	// Format "unix_micros,ph_adc,temp_adc\n"
	// Example: "1234567890123456,4095,4095\n" = ~27 bytes max per line
	// 20 outputs/sec * 27 bytes/line = 540 bytes/sec; 115200 baud gives
	// ample headroom.
	UART_BAUD_RATE = 115200
)
