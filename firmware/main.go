//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"
)

var (
	adcPH   machine.ADC
	adcTemp machine.ADC
	uart    = machine.UART0

	// ADC averaging - running sums and counts
	phSum     uint32
	tempSum   uint32
	phCount   int
	tempCount int

	// Timing
	lastADCRead time.Time
)

func main() {
	// Configure ADC pins and set up ADCs with highest resolution
	PIN_PH_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_TEMP_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})

	adcPH = machine.ADC{Pin: PIN_PH_ADC}
	adcTemp = machine.ADC{Pin: PIN_TEMP_ADC}

	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}

	adcPH.Configure(adcConfig)
	adcTemp.Configure(adcConfig)

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	lastADCRead = time.Now()

	// Main loop
	for {
		now := time.Now()

		// Read both channels at the same rate
		if now.Sub(lastADCRead) >= time.Duration(SAMPLE_INTERVAL_MS)*time.Millisecond {
			phSum += uint32(adcPH.Get())
			phCount++
			tempSum += uint32(adcTemp.Get())
			tempCount++
			lastADCRead = now
		}

		// Output once either channel has collected N samples
		if phCount >= NUM_SAMPLES || tempCount >= NUM_SAMPLES {
			outputAveragedValues()
			phSum = 0
			phCount = 0
			tempSum = 0
			tempCount = 0
		}

		// Small delay to prevent tight loop (but still allow precise timing)
		time.Sleep(100 * time.Microsecond)
	}
}

func outputAveragedValues() {
	phN := phCount
	if phN > NUM_SAMPLES {
		phN = NUM_SAMPLES
	}
	if phN == 0 {
		phN = 1 // Avoid division by zero
	}
	phAvg := uint16(phSum / uint32(phN))

	tempN := tempCount
	if tempN > NUM_SAMPLES {
		tempN = NUM_SAMPLES
	}
	if tempN == 0 {
		tempN = 1
	}
	tempAvg := uint16(tempSum / uint32(tempN))

	// Get timestamp in unix microseconds
	now := time.Now()
	timestampMicros := now.UnixNano() / 1000

	// Output format: "unix_micros,ph_adc,temp_adc\n"
	// Example: "1234567890123,3103,880\n"
	print(timestampMicros)
	print(",")
	print(phAvg)
	print(",")
	print(tempAvg)
	print("\n")
}
