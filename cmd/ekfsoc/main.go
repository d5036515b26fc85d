// ekfsoc runs the state-of-charge EKF over a logged drive cycle and writes the
// log back out with an SOC_Estimate column, ready for socplot.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ekf-soc/socview/src/compare"
	"github.com/ekf-soc/socview/src/ekf"
	"github.com/ekf-soc/socview/src/logging"
	"github.com/ekf-soc/socview/src/signals"
)

func main() {
	var in, out, level string
	flag.StringVar(&in, "in", "signals.csv", "Input log with Current,Voltage,Temperature,SOC columns")
	flag.StringVar(&out, "out", "signals_with_est.csv", "Output log with SOC_Estimate appended")
	flag.StringVar(&level, "log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()
	if !logging.SetLogLevel(level) {
		logging.Warnf("unknown log level %q, keeping %s", level, logging.GetLogLevel())
	}
	if err := run(in, out); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(in, out string) error {
	logging.Infof("EKF-SoC running.")
	ms, err := signals.ReadMeasurements(in)
	if err != nil {
		return err
	}
	f, err := ekf.New(ekf.DefaultParams())
	if err != nil {
		return err
	}
	rows := signals.Annotate(ms, f)
	if err := signals.WriteWithEstimate(out, rows); err != nil {
		return err
	}
	logging.Infof("wrote %d rows to %s", len(rows), out)
	if m, err := compare.Compare(signals.Estimates(rows), signals.References(rows)); err == nil {
		logging.Infof("estimate vs reference: %s", m)
	} else {
		logging.Warnf("no comparison: %v", err)
	}
	logging.Infof("EKF-SoC complete.")
	return nil
}
