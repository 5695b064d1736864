//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"jumpflood/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
)

// Overlay marks the seed position with a crosshair.
type Overlay struct {
	visible bool
	pixel   *ebiten.Image
}

// NewOverlay constructs a new overlay instance.
func NewOverlay() *Overlay {
	o := &Overlay{visible: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Toggle shows or hides the marker.
func (o *Overlay) Toggle() { o.visible = !o.visible }

// Draw renders the marker for seed. A frozen seed is drawn in orange.
func (o *Overlay) Draw(screen *ebiten.Image, seed core.Point, frozen bool) {
	if !o.visible {
		return
	}
	const (
		arm       = 6.0
		gap       = 2.0
		thickness = 1.0
	)
	col := color.RGBA{R: 255, G: 255, B: 255, A: 200}
	if frozen {
		col = color.RGBA{R: 255, G: 150, B: 40, A: 230}
	}
	x, y := float64(seed.X), float64(seed.Y)
	o.drawLine(screen, x-gap-arm, y, x-gap, y, thickness, col)
	o.drawLine(screen, x+gap, y, x+gap+arm, y, thickness, col)
	o.drawLine(screen, x, y-gap-arm, x, y-gap, thickness, col)
	o.drawLine(screen, x, y+gap, x, y+gap+arm, thickness, col)
	o.drawPoint(screen, x, y, thickness, col)
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.RGBA) {
	if o.pixel == nil || size <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size, size)
	op.GeoM.Translate(x-size*0.5, y-size*0.5)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	if o.pixel == nil || thickness <= 0 {
		return
	}
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}
