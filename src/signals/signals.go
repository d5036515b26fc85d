// Package signals reads logged cell measurements, runs the SOC estimator over
// them and writes the annotated log consumed by socplot.
package signals

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/ekf-soc/socview/src/ekf"
	"github.com/ekf-soc/socview/src/table"
)

// Column names shared by the input and annotated logs.
const (
	ColCurrent     = "Current"
	ColVoltage     = "Voltage"
	ColTemperature = "Temperature"
	ColSOC         = "SOC"
	ColEstimate    = "SOC_Estimate"
)

// Measurement is one logged sample.
type Measurement struct {
	Current     float64 // A, positive charging
	Voltage     float64 // V
	Temperature float64 // K
	SOC         float64 // reference SOC
}

// Row is a measurement with the estimate the filter held before consuming it.
type Row struct {
	Measurement
	Estimate float64
}

// ReadMeasurements loads Current, Voltage, Temperature and SOC by name.
// Extra columns are ignored.
func ReadMeasurements(path string) ([]Measurement, error) {
	tbl, err := table.Load(path)
	if err != nil {
		return nil, err
	}
	cols := make(map[string][]float64, 4)
	for _, name := range []string{ColCurrent, ColVoltage, ColTemperature, ColSOC} {
		s, err := tbl.Column(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		vals, err := s.Floats()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cols[name] = vals
	}
	out := make([]Measurement, tbl.Len())
	for i := range out {
		out[i] = Measurement{
			Current:     cols[ColCurrent][i],
			Voltage:     cols[ColVoltage][i],
			Temperature: cols[ColTemperature][i],
			SOC:         cols[ColSOC][i],
		}
	}
	return out, nil
}

// Annotate runs f over ms in order. Each row's Estimate is read before the
// filter steps on that row.
func Annotate(ms []Measurement, f *ekf.Filter) []Row {
	rows := make([]Row, len(ms))
	for i, m := range ms {
		rows[i] = Row{Measurement: m, Estimate: f.Estimate()}
		f.Step(m.Current, m.Voltage, m.Temperature)
	}
	return rows
}

// Estimates and References split rows for scoring.
func Estimates(rows []Row) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Estimate
	}
	return out
}

func References(rows []Row) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.SOC
	}
	return out
}

// WriteWithEstimate writes rows with header
// Current,Voltage,Temperature,SOC,SOC_Estimate. Numbers use at most six
// significant digits.
func WriteWithEstimate(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{ColCurrent, ColVoltage, ColTemperature, ColSOC, ColEstimate}); err != nil {
		f.Close()
		return err
	}
	for _, r := range rows {
		rec := []string{
			formatNumber(r.Current),
			formatNumber(r.Voltage),
			formatNumber(r.Temperature),
			formatNumber(r.SOC),
			formatNumber(r.Estimate),
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
