// socplot shows the estimated state of charge next to the reference state of
// charge from signals_with_est.csv in the working directory.
//
// Both columns are drawn as separate lines against row index (time step) on
// one chart, and the window blocks until closed. Nothing is written to disk.
// A missing file, a malformed CSV or a missing column ends the process with a
// non-zero exit before any window opens. Empty cells leave gaps in a line and
// a file with only a header shows empty labelled axes.
package main

import (
	"os"

	"github.com/ekf-soc/socview/src/logging"
	"github.com/ekf-soc/socview/src/render"
	"github.com/ekf-soc/socview/src/table"
	"github.com/ekf-soc/socview/src/viewer"
)

const (
	dataFile = "signals_with_est.csv"

	// Edit to compare other columns.
	xCol = "SOC_Estimate"
	yCol = "SOC"
)

func main() {
	os.Exit(exitCode(run(viewer.New())))
}

func exitCode(err error) int {
	if err != nil {
		logging.Errorf("%v", err)
		return 1
	}
	return 0
}

func run(d viewer.Display) error {
	tbl, err := table.Load(dataFile)
	if err != nil {
		return err
	}

	lines := make([]render.Line, 0, 2)
	for _, name := range []string{xCol, yCol} {
		s, err := tbl.Column(name)
		if err != nil {
			return err
		}
		vals, err := s.Floats()
		if err != nil {
			return err
		}
		lines = append(lines, render.Line{Name: name, Values: vals})
	}

	title := render.Title(xCol, yCol)
	ch, err := render.Comparison(title, render.DefaultOptions(), lines...)
	if err != nil {
		return err
	}
	img, err := render.Image(ch)
	if err != nil {
		return err
	}
	return d.Show(title, img)
}
