package probe

// RP2040/RP2350 internal temperature sensor characteristics: the sensor
// outputs 0.706 V at 27 C and the voltage falls 1.721 mV per degree.
const (
	tempSensorV0 = 0.706    // V at 27 C
	tempSensorK  = 0.001721 // V per degree C
)

// TempSensorCelsius converts the internal temperature sensor voltage to
// degrees Celsius: T = 27 - (V - 0.706) / 0.001721.
func TempSensorCelsius(v float64) float64 {
	return 27 - (v-tempSensorV0)/tempSensorK
}

// TempSensorVoltage is the inverse of TempSensorCelsius. Used by the mock
// device to synthesize raw temperature samples.
func TempSensorVoltage(tempC float64) float64 {
	return tempSensorV0 - (tempC-27)*tempSensorK
}
