// Package viewer shows rendered charts in an interactive fyne window.
package viewer

import (
	"image"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"

	"github.com/ekf-soc/socview/src/logging"
)

// Display shows a chart image and returns once the user is done with it.
type Display interface {
	Show(title string, img image.Image) error
}

// Window is the desktop Display. Show blocks until the window is closed.
type Window struct {
	newApp func() fyne.App
}

func New() *Window {
	return &Window{newApp: app.New}
}

// Show opens a window holding img and runs the fyne event loop until the
// window closes.
func (v *Window) Show(title string, img image.Image) error {
	a := v.newApp()
	w := NewChartWindow(a, title, img)
	logging.Debugf("showing %q (%dx%d)", title, img.Bounds().Dx(), img.Bounds().Dy())
	w.ShowAndRun()
	return nil
}

// NewChartWindow builds (but does not show) a window whose content is img,
// scaled to fit while keeping its aspect ratio. The window starts at the
// image's pixel size.
func NewChartWindow(a fyne.App, title string, img image.Image) fyne.Window {
	w := a.NewWindow(title)
	c := canvas.NewImageFromImage(img)
	c.FillMode = canvas.ImageFillContain
	b := img.Bounds()
	c.SetMinSize(fyne.NewSize(float32(b.Dx())/4, float32(b.Dy())/4))
	w.SetContent(c)
	w.Resize(fyne.NewSize(float32(b.Dx()), float32(b.Dy())))
	return w
}
