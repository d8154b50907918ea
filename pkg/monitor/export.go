package monitor

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jcastillo/phmon/pkg/sample"
)

// csvHeader matches the column layout of the session CSV download.
var csvHeader = []string{"timestamp", "voltage_v", "ph", "temp_c"}

// WriteCSV writes readings to w in CSV form, oldest first.
func WriteCSV(w io.Writer, readings []sample.Reading) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range readings {
		record := []string{
			r.Timestamp.Format(time.RFC3339Nano),
			strconv.FormatFloat(r.Voltage, 'f', 4, 64),
			strconv.FormatFloat(r.PH, 'f', 3, 64),
			strconv.FormatFloat(r.TempC, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	return nil
}

// WriteCSV writes the monitor's current window to w. When the configured
// export cap is set and the window exceeds it, the window is decimated down
// to the cap before writing.
func (m *Monitor) WriteCSV(w io.Writer) error {
	readings := m.Readings()
	if m.maxExportPoints > 0 && len(readings) > m.maxExportPoints {
		readings = sample.DownsampleReadings(nil, readings, m.maxExportPoints)
	}
	return WriteCSV(w, readings)
}
