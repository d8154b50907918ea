package sample

// DownsampleReadings downsamples a slice of readings to a maximum number of
// points using simple decimation. Destination-based: reuses dst if it has
// sufficient capacity, otherwise allocates new. Returns the destination slice.
// If len(readings) <= maxPoints, copies all readings to dst.
func DownsampleReadings(dst []Reading, readings []Reading, maxPoints int) []Reading {
	if len(readings) <= maxPoints {
		if cap(dst) >= len(readings) {
			dst = dst[:len(readings)]
			copy(dst, readings)
			return dst
		}
		// dst too small, allocate new
		result := make([]Reading, len(readings))
		copy(result, readings)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0] // Reset length but keep capacity
	} else {
		dst = make([]Reading, 0, maxPoints)
	}

	// Calculate step size for decimation
	step := float64(len(readings)) / float64(maxPoints)

	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i) * step)
		if idx < len(readings) {
			dst = append(dst, readings[idx])
		}
	}

	return dst
}
